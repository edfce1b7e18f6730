package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo libro de stock sobre la columna products.quantity (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// LockLevels toma los bloqueos de fila en orden binario de id (COLLATE "C"), el mismo orden
// que usa el almacén en memoria.
func (r *StockRepo) LockLevels(ctx context.Context, productIDs []string) (map[string]entity.StockLevel, error) {
	out := make(map[string]entity.StockLevel, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	query := `
		SELECT id, quantity, low_stock_threshold
		FROM products
		WHERE id = ANY($1)
		ORDER BY id COLLATE "C"
		FOR UPDATE`
	rows, err := r.q.Query(ctx, query, productIDs)
	if err != nil {
		return nil, fmt.Errorf("lock stock levels: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var lvl entity.StockLevel
		if err := rows.Scan(&lvl.ProductID, &lvl.Quantity, &lvl.Threshold); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		out[lvl.ProductID] = lvl
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lock stock levels: %w", err)
	}
	return out, nil
}

// AddQuantity UPDATE condicional: la fila solo cambia si la cantidad resultante no es negativa.
func (r *StockRepo) AddQuantity(ctx context.Context, productID string, delta int64) (entity.StockLevel, error) {
	query := `
		UPDATE products
		SET quantity = quantity + $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND quantity + $2 >= 0
		RETURNING id, quantity, low_stock_threshold`
	var lvl entity.StockLevel
	err := r.q.QueryRow(ctx, query, productID, delta).Scan(&lvl.ProductID, &lvl.Quantity, &lvl.Threshold)
	if err == nil {
		return lvl, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return entity.StockLevel{}, fmt.Errorf("add stock quantity: %w", err)
	}

	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
		return entity.StockLevel{}, fmt.Errorf("check product: %w", err)
	}
	if !exists {
		return entity.StockLevel{}, fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
	}
	return entity.StockLevel{}, fmt.Errorf("producto %s: %w", productID, domain.ErrInsufficientStock)
}
