package entity

// StockLevel cantidad y umbral de un producto tras una mutación del libro de stock.
type StockLevel struct {
	ProductID string
	Quantity  int64
	Threshold int64
}

// IsLow indica si la cantidad está en o por debajo del umbral.
func (l StockLevel) IsLow() bool {
	return l.Quantity <= l.Threshold
}
