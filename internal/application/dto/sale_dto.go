package dto

import (
	"time"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/pkg/money"
)

// CreateSaleRequest body para POST /api/sales. Tax en centavos.
// Workflow: direct (COMPLETED al crear) o acceptance (PENDING hasta aceptar).
type CreateSaleRequest struct {
	Items         []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
	Tax           int64             `json:"tax" validate:"min=0"`
	PaymentMethod string            `json:"payment_method" validate:"omitempty,oneof=cash card check"`
	Notes         string            `json:"notes" validate:"max=500"`
	Workflow      string            `json:"workflow" validate:"omitempty,oneof=direct acceptance"`
}

// SaleItemRequest línea de la canasta.
type SaleItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"gt=0"`
}

// InvoiceResponse venta con sus líneas. Montos en centavos más su representación decimal.
type InvoiceResponse struct {
	ID                string             `json:"id"`
	Number            string             `json:"number"`
	Status            string             `json:"status"`
	Items             []LineItemResponse `json:"items"`
	Subtotal          int64              `json:"subtotal"`
	Tax               int64              `json:"tax"`
	Total             int64              `json:"total"`
	SubtotalFormatted string             `json:"subtotal_formatted"`
	TaxFormatted      string             `json:"tax_formatted"`
	TotalFormatted    string             `json:"total_formatted"`
	PaymentMethod     string             `json:"payment_method"`
	CashierID         string             `json:"cashier_id,omitempty"`
	Notes             string             `json:"notes,omitempty"`
	ReservationID     string             `json:"reservation_id"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// LineItemResponse línea de la venta con precio congelado.
type LineItemResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	Subtotal    int64  `json:"subtotal"`
}

// InvoiceListResponse lista paginada de ventas (sin líneas).
type InvoiceListResponse struct {
	Items []InvoiceResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// ToInvoiceResponse convierte la entidad a DTO.
func ToInvoiceResponse(inv *entity.Invoice) InvoiceResponse {
	items := make([]LineItemResponse, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, LineItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			SKU:         it.SKU,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPriceCents,
			Subtotal:    it.SubtotalCents,
		})
	}
	return InvoiceResponse{
		ID:                inv.ID,
		Number:            inv.Number,
		Status:            string(inv.Status),
		Items:             items,
		Subtotal:          inv.SubtotalCents,
		Tax:               inv.TaxCents,
		Total:             inv.TotalCents,
		SubtotalFormatted: money.Format(inv.SubtotalCents),
		TaxFormatted:      money.Format(inv.TaxCents),
		TotalFormatted:    money.Format(inv.TotalCents),
		PaymentMethod:     inv.PaymentMethod,
		CashierID:         inv.CashierID,
		Notes:             inv.Notes,
		ReservationID:     inv.ReservationID,
		CreatedAt:         inv.CreatedAt,
		UpdatedAt:         inv.UpdatedAt,
	}
}
