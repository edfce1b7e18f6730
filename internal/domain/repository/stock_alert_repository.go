package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// StockAlertRepository estado derivado de stock bajo. Lo escribe únicamente el emisor de alertas.
type StockAlertRepository interface {
	// GetActiveByProduct devuelve la alerta ACTIVE del producto o (nil, nil).
	GetActiveByProduct(ctx context.Context, productID string) (*entity.StockAlert, error)
	// Create inserta una alerta ACTIVE; domain.ErrDuplicate si ya hay una activa para el producto.
	Create(ctx context.Context, alert *entity.StockAlert) error
	// Refresh actualiza la cantidad observada de una alerta activa.
	Refresh(ctx context.Context, id string, quantity, threshold int64) error
	Clear(ctx context.Context, id string, quantity int64, at time.Time) error
	// List por estado ("" = todas), más recientes primero.
	List(ctx context.Context, status string) ([]*entity.StockAlert, error)
}
