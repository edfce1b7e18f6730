package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo reservas de stock y sus líneas.
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador de reservas. Pasar pool o tx (Querier).
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

// Create inserta la cabecera y las líneas en un solo lote.
func (r *ReservationRepo) Create(ctx context.Context, res *entity.Reservation) error {
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO reservations (id, status, created_at, released_at)
		VALUES ($1, $2, $3, $4)`,
		res.ID, res.Status, res.CreatedAt, res.ReleasedAt,
	)
	for _, l := range res.Lines {
		batch.Queue(`
			INSERT INTO reservation_lines (reservation_id, product_id, quantity)
			VALUES ($1, $2, $3)`,
			res.ID, l.ProductID, l.Quantity,
		)
	}
	if err := execBatch(r.q.SendBatch(ctx, batch), batch.Len()); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("reserva %s: %w", res.ID, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

// GetForUpdate bloquea la cabecera y devuelve las líneas en orden binario de producto.
func (r *ReservationRepo) GetForUpdate(ctx context.Context, id string) (*entity.Reservation, error) {
	var res entity.Reservation
	err := r.q.QueryRow(ctx, `
		SELECT id, status, created_at, released_at
		FROM reservations WHERE id = $1
		FOR UPDATE`, id,
	).Scan(&res.ID, &res.Status, &res.CreatedAt, &res.ReleasedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation for update: %w", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT product_id, quantity
		FROM reservation_lines
		WHERE reservation_id = $1
		ORDER BY product_id COLLATE "C"`, id)
	if err != nil {
		return nil, fmt.Errorf("get reservation lines: %w", err)
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.ReservationLine, error) {
		var l entity.ReservationLine
		err := row.Scan(&l.ProductID, &l.Quantity)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan reservation lines: %w", err)
	}
	res.Lines = lines
	return &res, nil
}

// MarkReleased marca la reserva como liberada.
func (r *ReservationRepo) MarkReleased(ctx context.Context, id string, at time.Time) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE reservations SET status = $2, released_at = $3
		WHERE id = $1`,
		id, entity.ReservationStatusReleased, at,
	)
	if err != nil {
		return fmt.Errorf("mark reservation released: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("reserva %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
