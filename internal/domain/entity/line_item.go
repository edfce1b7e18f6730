package entity

// LineItem una línea de la factura. Precio y costo se congelan al momento de la venta;
// cambios posteriores en el producto no alteran facturas históricas.
type LineItem struct {
	ID             string
	InvoiceID      string
	ProductID      string
	ProductName    string
	SKU            string
	Quantity       int64
	UnitPriceCents int64
	UnitCostCents  int64
	SubtotalCents  int64 // UnitPriceCents * Quantity
}
