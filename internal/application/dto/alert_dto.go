package dto

import (
	"time"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// StockAlertResponse alerta de stock bajo.
type StockAlertResponse struct {
	ID              string     `json:"id"`
	ProductID       string     `json:"product_id"`
	CurrentQuantity int64      `json:"current_quantity"`
	Threshold       int64      `json:"threshold"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	ClearedAt       *time.Time `json:"cleared_at,omitempty"`
}

// ToStockAlertResponse convierte la entidad a DTO.
func ToStockAlertResponse(a *entity.StockAlert) StockAlertResponse {
	return StockAlertResponse{
		ID:              a.ID,
		ProductID:       a.ProductID,
		CurrentQuantity: a.CurrentQuantity,
		Threshold:       a.Threshold,
		Status:          a.Status,
		CreatedAt:       a.CreatedAt,
		ClearedAt:       a.ClearedAt,
	}
}
