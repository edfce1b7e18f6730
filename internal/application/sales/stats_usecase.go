package sales

import (
	"context"
	"time"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/pkg/money"
)

const (
	defaultStatsWindow = 30 * 24 * time.Hour
	topProductsLimit   = 5
)

// StatsUseCase estadísticas de ventas para tableros externos.
type StatsUseCase struct {
	reportRepo  repository.SalesReportRepository
	productRepo repository.ProductRepository
	now         func() time.Time
}

// NewStatsUseCase construye el caso de uso.
func NewStatsUseCase(reportRepo repository.SalesReportRepository, productRepo repository.ProductRepository) *StatsUseCase {
	return &StatsUseCase{reportRepo: reportRepo, productRepo: productRepo, now: time.Now}
}

// Stats resumen del rango [from, to). Sin rango: últimos 30 días.
func (uc *StatsUseCase) Stats(ctx context.Context, from, to *time.Time) (*dto.SalesStatsResponse, error) {
	end := uc.now()
	if to != nil {
		end = *to
	}
	start := end.Add(-defaultStatsWindow)
	if from != nil {
		start = *from
	}
	if !end.After(start) {
		return nil, domain.NewValidationError("to", "debe ser posterior a from")
	}

	summary, err := uc.reportRepo.Summary(ctx, start, end)
	if err != nil {
		return nil, err
	}
	top, err := uc.reportRepo.TopProducts(ctx, start, end, topProductsLimit)
	if err != nil {
		return nil, err
	}
	low, err := uc.productRepo.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}

	out := &dto.SalesStatsResponse{
		From:             start.Format(time.RFC3339),
		To:               end.Format(time.RFC3339),
		InvoiceCount:     summary.InvoiceCount,
		UnitsSold:        summary.UnitsSold,
		Revenue:          summary.RevenueCents,
		RevenueFormatted: money.Format(summary.RevenueCents),
		Cost:             summary.CostCents,
		GrossMarginPct:   summary.GrossMarginPct,
		LowStockCount:    len(low),
		TopProducts:      make([]dto.TopProductDTO, 0, len(top)),
	}
	for _, t := range top {
		out.TopProducts = append(out.TopProducts, dto.TopProductDTO{
			ProductID:   t.ProductID,
			SKU:         t.SKU,
			ProductName: t.ProductName,
			UnitsSold:   t.UnitsSold,
			Revenue:     t.RevenueCents,
		})
	}
	return out, nil
}
