package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo libro de stock en memoria: mutex por producto tomados en orden ascendente.
type StockRepo struct {
	base
}

// LockLevels bloquea los productos hasta el fin de la transacción. Fuera de una transacción
// solo devuelve una foto (no hay a quién atar el bloqueo).
func (r *StockRepo) LockLevels(_ context.Context, productIDs []string) (map[string]entity.StockLevel, error) {
	t := r.view()
	ids := productIDs
	if r.t != nil {
		ids = t.lockProducts(productIDs)
	}
	out := make(map[string]entity.StockLevel, len(ids))
	for _, id := range ids {
		if p := t.product(id); p != nil {
			out[id] = p.Level()
		}
	}
	return out, nil
}

// AddQuantity suma delta solo si el resultado no es negativo (equivalente al UPDATE condicional).
func (r *StockRepo) AddQuantity(_ context.Context, productID string, delta int64) (entity.StockLevel, error) {
	var level entity.StockLevel
	err := r.write(func(t *tx) error {
		t.lock(lockProduct + productID)
		p := t.product(productID)
		if p == nil {
			return fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
		}
		if p.Quantity+delta < 0 {
			return fmt.Errorf("producto %s: %w", productID, domain.ErrInsufficientStock)
		}
		p.Quantity += delta
		p.Version++
		p.UpdatedAt = t.s.now()
		t.products[productID] = p
		level = p.Level()
		return nil
	})
	return level, err
}
