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

var _ repository.StockAlertRepository = (*StockAlertRepo)(nil)

const alertColumns = `id, product_id, current_quantity, threshold, status, created_at, cleared_at`

// StockAlertRepo alertas de stock bajo. El índice único parcial garantiza una sola ACTIVE por producto.
type StockAlertRepo struct {
	q Querier
}

// NewStockAlertRepository construye el adaptador de alertas. Pasar pool o tx (Querier).
func NewStockAlertRepository(q Querier) *StockAlertRepo {
	return &StockAlertRepo{q: q}
}

func scanAlert(row pgx.Row) (*entity.StockAlert, error) {
	var a entity.StockAlert
	err := row.Scan(&a.ID, &a.ProductID, &a.CurrentQuantity, &a.Threshold, &a.Status, &a.CreatedAt, &a.ClearedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *StockAlertRepo) GetActiveByProduct(ctx context.Context, productID string) (*entity.StockAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM stock_alerts WHERE product_id = $1 AND status = 'ACTIVE'`
	a, err := scanAlert(r.q.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active alert: %w", err)
	}
	return a, nil
}

func (r *StockAlertRepo) Create(ctx context.Context, alert *entity.StockAlert) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_alerts (`+alertColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		alert.ID, alert.ProductID, alert.CurrentQuantity, alert.Threshold, alert.Status,
		alert.CreatedAt, alert.ClearedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("alerta activa de %s: %w", alert.ProductID, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert stock alert: %w", err)
	}
	return nil
}

func (r *StockAlertRepo) Refresh(ctx context.Context, id string, quantity, threshold int64) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE stock_alerts SET current_quantity = $2, threshold = $3
		WHERE id = $1 AND status = 'ACTIVE'`,
		id, quantity, threshold,
	)
	if err != nil {
		return fmt.Errorf("refresh stock alert: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("alerta %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *StockAlertRepo) Clear(ctx context.Context, id string, quantity int64, at time.Time) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE stock_alerts SET status = 'CLEARED', current_quantity = $2, cleared_at = $3
		WHERE id = $1 AND status = 'ACTIVE'`,
		id, quantity, at,
	)
	if err != nil {
		return fmt.Errorf("clear stock alert: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("alerta %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// List por estado ("" = todas), más recientes primero.
func (r *StockAlertRepo) List(ctx context.Context, status string) ([]*entity.StockAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM stock_alerts`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id`
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock alerts: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock alert: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
