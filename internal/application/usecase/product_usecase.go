package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// ProductUseCase casos de uso del catálogo. La cantidad solo se fija al crear;
// después cambia por ventas, cancelaciones y reposiciones (libro de stock).
type ProductUseCase struct {
	txRunner inventory.TxRunner
	repo     repository.ProductRepository
	alerts   *inventory.AlertEmitter
	ledger   *inventory.StockLedger
	now      func() time.Time
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(
	txRunner inventory.TxRunner,
	repo repository.ProductRepository,
	alerts *inventory.AlertEmitter,
	ledger *inventory.StockLedger,
) *ProductUseCase {
	return &ProductUseCase{txRunner: txRunner, repo: repo, alerts: alerts, ledger: ledger, now: time.Now}
}

// NormalizeSKU recorta espacios y pasa a mayúsculas.
func NormalizeSKU(sku string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(sku))
}

// Create crea un producto con su stock inicial y evalúa su alerta de stock bajo.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	sku := NormalizeSKU(in.SKU)
	name := strings.TrimSpace(in.Name)
	if sku == "" || name == "" {
		return nil, domain.NewValidationError("sku", "sku y name son requeridos")
	}
	if in.Price < 0 || in.Cost < 0 || in.Quantity < 0 {
		return nil, domain.NewValidationError("price", "price, cost y quantity no pueden ser negativos")
	}
	threshold := entity.DefaultLowStockThreshold
	if in.LowStockThreshold != nil {
		if *in.LowStockThreshold < 0 {
			return nil, domain.NewValidationError("low_stock_threshold", "no puede ser negativo")
		}
		threshold = *in.LowStockThreshold
	}
	now := uc.now()
	product := &entity.Product{
		ID:                uuid.New().String(),
		Name:              name,
		SKU:               sku,
		Category:          strings.TrimSpace(in.Category),
		Description:       in.Description,
		PriceCents:        in.Price,
		CostCents:         in.Cost,
		Quantity:          in.Quantity,
		LowStockThreshold: threshold,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var transitions []entity.AlertTransition
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		existing, err := repos.Products.GetBySKU(ctx, sku)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("sku %s: %w", sku, domain.ErrDuplicate)
		}
		if err := repos.Products.Create(ctx, product); err != nil {
			return err
		}
		transitions, err = uc.alerts.Evaluate(ctx, repos.Alerts, []entity.StockLevel{product.Level()})
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.ledger.Publish(ctx, transitions)
	out := dto.ToProductResponse(product)
	return &out, nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("producto %s: %w", id, domain.ErrNotFound)
	}
	out := dto.ToProductResponse(product)
	return &out, nil
}

// Update actualiza datos de catálogo (no cantidad ni SKU). Si cambia el umbral se reevalúa la alerta.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	var (
		product     *entity.Product
		transitions []entity.AlertTransition
	)
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		// Bloquea la fila igual que el libro de stock para leer una cantidad estable.
		levels, err := repos.Stock.LockLevels(ctx, []string{id})
		if err != nil {
			return err
		}
		if _, ok := levels[id]; !ok {
			return &domain.ProductNotFoundError{ProductID: id}
		}
		product, err = repos.Products.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return &domain.ProductNotFoundError{ProductID: id}
		}
		if err := applyUpdate(product, in); err != nil {
			return err
		}
		product.UpdatedAt = uc.now()
		if err := repos.Products.Update(ctx, product); err != nil {
			return err
		}
		transitions, err = uc.alerts.Evaluate(ctx, repos.Alerts, []entity.StockLevel{product.Level()})
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.ledger.Publish(ctx, transitions)
	out := dto.ToProductResponse(product)
	return &out, nil
}

func applyUpdate(p *entity.Product, in dto.UpdateProductRequest) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return domain.NewValidationError("name", "no puede estar vacío")
		}
		p.Name = name
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return domain.NewValidationError("price", "no puede ser negativo")
		}
		p.PriceCents = *in.Price
	}
	if in.Cost != nil {
		if *in.Cost < 0 {
			return domain.NewValidationError("cost", "no puede ser negativo")
		}
		p.CostCents = *in.Cost
	}
	if in.LowStockThreshold != nil {
		if *in.LowStockThreshold < 0 {
			return domain.NewValidationError("low_stock_threshold", "no puede ser negativo")
		}
		p.LowStockThreshold = *in.LowStockThreshold
	}
	return nil
}

// List lista productos con búsqueda por nombre/SKU, categoría y paginación.
func (uc *ProductUseCase) List(ctx context.Context, search, category string, limit, offset int) (*dto.ProductListResponse, error) {
	list, total, err := uc.repo.List(ctx, repository.ProductFilter{
		Search:   strings.TrimSpace(search),
		Category: strings.TrimSpace(category),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, dto.ToProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Total: total},
	}, nil
}

// Restock entrada de mercancía a través del libro de stock; con costo unitario recalcula el costo promedio.
func (uc *ProductUseCase) Restock(ctx context.Context, id string, in dto.RestockRequest) (*dto.StockLevelResponse, error) {
	level, err := uc.ledger.Receive(ctx, id, in.Quantity, in.UnitCost)
	if err != nil {
		return nil, err
	}
	out := dto.ToStockLevelResponse(level)
	return &out, nil
}
