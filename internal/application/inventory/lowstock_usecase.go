package inventory

import (
	"context"
	"strings"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// LowStockUseCase lectura del estado derivado de alertas; nunca recalcula el filtro.
type LowStockUseCase struct {
	productRepo repository.ProductRepository
	alertRepo   repository.StockAlertRepository
}

// NewLowStockUseCase construye el caso de uso.
func NewLowStockUseCase(productRepo repository.ProductRepository, alertRepo repository.StockAlertRepository) *LowStockUseCase {
	return &LowStockUseCase{productRepo: productRepo, alertRepo: alertRepo}
}

// ListLowStock productos con una alerta ACTIVE.
func (uc *LowStockUseCase) ListLowStock(ctx context.Context) ([]dto.ProductResponse, error) {
	list, err := uc.productRepo.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		out = append(out, dto.ToProductResponse(p))
	}
	return out, nil
}

// ListAlerts historial de alertas; status vacío devuelve todas.
func (uc *LowStockUseCase) ListAlerts(ctx context.Context, status string) ([]dto.StockAlertResponse, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status != "" && status != entity.AlertStatusActive && status != entity.AlertStatusCleared {
		return nil, domain.NewValidationError("status", "debe ser active o cleared")
	}
	list, err := uc.alertRepo.List(ctx, status)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockAlertResponse, 0, len(list))
	for _, a := range list {
		out = append(out, dto.ToStockAlertResponse(a))
	}
	return out, nil
}
