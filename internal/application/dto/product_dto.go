package dto

import (
	"time"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/pkg/money"
)

// CreateProductRequest entrada para crear un producto. Montos en centavos.
// Quantity es el stock inicial; después solo cambia por ventas, cancelaciones y reposiciones.
type CreateProductRequest struct {
	SKU               string `json:"sku" validate:"required,min=1,max=100"`
	Name              string `json:"name" validate:"required,min=1,max=200"`
	Category          string `json:"category" validate:"max=100"`
	Description       string `json:"description" validate:"max=1000"`
	Price             int64  `json:"price" validate:"min=0"`
	Cost              int64  `json:"cost" validate:"min=0"`
	Quantity          int64  `json:"quantity" validate:"min=0"`
	LowStockThreshold *int64 `json:"low_stock_threshold" validate:"omitempty,min=0"`
}

// UpdateProductRequest entrada para actualizar un producto (sin cantidad ni SKU).
type UpdateProductRequest struct {
	Name              *string `json:"name" validate:"omitempty,min=1,max=200"`
	Category          *string `json:"category" validate:"omitempty,max=100"`
	Description       *string `json:"description" validate:"omitempty,max=1000"`
	Price             *int64  `json:"price" validate:"omitempty,min=0"`
	Cost              *int64  `json:"cost" validate:"omitempty,min=0"`
	LowStockThreshold *int64  `json:"low_stock_threshold" validate:"omitempty,min=0"`
}

// RestockRequest entrada de mercancía. UnitCost en centavos, opcional.
type RestockRequest struct {
	Quantity int64  `json:"quantity" validate:"gt=0"`
	UnitCost *int64 `json:"unit_cost" validate:"omitempty,min=0"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID                string    `json:"id"`
	SKU               string    `json:"sku"`
	Name              string    `json:"name"`
	Category          string    `json:"category,omitempty"`
	Description       string    `json:"description,omitempty"`
	Price             int64     `json:"price"`
	PriceFormatted    string    `json:"price_formatted"`
	Cost              int64     `json:"cost"`
	Quantity          int64     `json:"quantity"`
	LowStockThreshold int64     `json:"low_stock_threshold"`
	LowStock          bool      `json:"low_stock"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// StockLevelResponse resultado de una reposición.
type StockLevelResponse struct {
	ProductID         string `json:"product_id"`
	Quantity          int64  `json:"quantity"`
	LowStockThreshold int64  `json:"low_stock_threshold"`
	LowStock          bool   `json:"low_stock"`
}

// ToProductResponse convierte la entidad a DTO.
func ToProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:                p.ID,
		SKU:               p.SKU,
		Name:              p.Name,
		Category:          p.Category,
		Description:       p.Description,
		Price:             p.PriceCents,
		PriceFormatted:    money.Format(p.PriceCents),
		Cost:              p.CostCents,
		Quantity:          p.Quantity,
		LowStockThreshold: p.LowStockThreshold,
		LowStock:          p.Level().IsLow(),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// ToStockLevelResponse convierte un nivel de stock a DTO.
func ToStockLevelResponse(l entity.StockLevel) StockLevelResponse {
	return StockLevelResponse{
		ProductID:         l.ProductID,
		Quantity:          l.Quantity,
		LowStockThreshold: l.Threshold,
		LowStock:          l.IsLow(),
	}
}
