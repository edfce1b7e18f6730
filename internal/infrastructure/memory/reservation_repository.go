package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo reservas de stock en memoria.
type ReservationRepo struct {
	base
}

func (r *ReservationRepo) Create(_ context.Context, res *entity.Reservation) error {
	return r.write(func(t *tx) error {
		t.lock(lockReservation + res.ID)
		if t.reservation(res.ID) != nil {
			return fmt.Errorf("reserva %s: %w", res.ID, domain.ErrDuplicate)
		}
		t.reservations[res.ID] = copyReservation(res)
		return nil
	})
}

// GetForUpdate bloquea la reserva hasta el fin de la transacción; (nil, nil) si no existe.
func (r *ReservationRepo) GetForUpdate(_ context.Context, id string) (*entity.Reservation, error) {
	if r.t == nil {
		return r.view().reservation(id), nil
	}
	r.t.lock(lockReservation + id)
	return r.t.reservation(id), nil
}

func (r *ReservationRepo) MarkReleased(_ context.Context, id string, at time.Time) error {
	return r.write(func(t *tx) error {
		t.lock(lockReservation + id)
		res := t.reservation(id)
		if res == nil {
			return fmt.Errorf("reserva %s: %w", id, domain.ErrNotFound)
		}
		res.Status = entity.ReservationStatusReleased
		res.ReleasedAt = &at
		t.reservations[id] = res
		return nil
	})
}
