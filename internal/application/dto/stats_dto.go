package dto

import "github.com/shopspring/decimal"

// SalesStatsResponse respuesta de GET /api/sales/stats (facturas no canceladas del rango).
type SalesStatsResponse struct {
	From             string          `json:"from"`
	To               string          `json:"to"`
	InvoiceCount     int             `json:"invoice_count"`
	UnitsSold        int64           `json:"units_sold"`
	Revenue          int64           `json:"revenue"`
	RevenueFormatted string          `json:"revenue_formatted"`
	Cost             int64           `json:"cost"`
	GrossMarginPct   decimal.Decimal `json:"gross_margin_pct"` // (revenue - cost) / revenue * 100
	LowStockCount    int             `json:"low_stock_count"`
	TopProducts      []TopProductDTO `json:"top_products"`
}

// TopProductDTO producto más vendido del período.
type TopProductDTO struct {
	ProductID   string `json:"product_id"`
	SKU         string `json:"sku"`
	ProductName string `json:"product_name"`
	UnitsSold   int64  `json:"units_sold"`
	Revenue     int64  `json:"revenue"`
}
