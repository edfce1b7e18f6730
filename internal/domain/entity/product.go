package entity

import "time"

// DefaultLowStockThreshold umbral de stock bajo cuando el catálogo no indica uno.
const DefaultLowStockThreshold int64 = 10

// Product representa un producto del catálogo. Los montos van en centavos.
// Quantity solo la modifica el libro de stock (reserva, liberación, reposición).
type Product struct {
	ID                string
	Name              string
	SKU               string // único, normalizado en mayúsculas
	Category          string
	Description       string
	PriceCents        int64 // precio unitario de venta
	CostCents         int64 // costo unitario
	Quantity          int64 // existencias, nunca negativas
	LowStockThreshold int64
	Version           int64 // se incrementa en cada escritura de cantidad
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Level devuelve la foto de stock del producto.
func (p *Product) Level() StockLevel {
	return StockLevel{ProductID: p.ID, Quantity: p.Quantity, Threshold: p.LowStockThreshold}
}
