package repository

import (
	"context"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// ProductFilter filtros del listado del catálogo.
type ProductFilter struct {
	Search   string // coincide con nombre o SKU
	Category string
	Limit    int
	Offset   int
}

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID/GetBySKU devuelven (nil, nil) cuando no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	// GetByIDs devuelve solo los productos encontrados, indexados por id.
	GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Product, error)
	// Update modifica los datos de catálogo; nunca la cantidad.
	Update(ctx context.Context, product *entity.Product) error
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, int, error)
	// ListLowStock productos con una alerta ACTIVE.
	ListLowStock(ctx context.Context) ([]*entity.Product, error)
}
