package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SalesSummary métricas agregadas de ventas no canceladas en un rango.
type SalesSummary struct {
	InvoiceCount   int
	UnitsSold      int64
	RevenueCents   int64 // suma de subtotales, sin impuestos
	CostCents      int64 // suma de costo unitario * cantidad
	GrossMarginPct decimal.Decimal
}

// TopProductResult producto más vendido en el rango.
type TopProductResult struct {
	ProductID    string
	SKU          string
	ProductName  string
	UnitsSold    int64
	RevenueCents int64
}

// SalesReportRepository consultas de solo lectura para estadísticas de ventas.
// Las facturas CANCELLED no cuentan.
type SalesReportRepository interface {
	Summary(ctx context.Context, from, to time.Time) (SalesSummary, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProductResult, error)
}
