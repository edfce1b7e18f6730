package entity

import "time"

// Estados de una reserva de stock.
const (
	ReservationStatusActive   = "ACTIVE"
	ReservationStatusReleased = "RELEASED"
)

// ReservationLine cantidad descontada de un producto.
type ReservationLine struct {
	ProductID string
	Quantity  int64
}

// Reservation registro de lo descontado por un intento de venta; permite la liberación compensatoria.
type Reservation struct {
	ID         string
	Lines      []ReservationLine // ordenadas por ProductID ascendente
	Status     string
	CreatedAt  time.Time
	ReleasedAt *time.Time
}

// IsReleased indica si ya se devolvió el stock.
func (r *Reservation) IsReleased() bool {
	return r.Status == ReservationStatusReleased
}
