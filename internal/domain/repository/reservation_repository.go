package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// ReservationRepository persiste las reservas de stock.
type ReservationRepository interface {
	Create(ctx context.Context, r *entity.Reservation) error
	// GetForUpdate bloquea la reserva; (nil, nil) si no existe.
	GetForUpdate(ctx context.Context, id string) (*entity.Reservation, error)
	MarkReleased(ctx context.Context, id string, at time.Time) error
}
