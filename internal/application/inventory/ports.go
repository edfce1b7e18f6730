package inventory

import (
	"context"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Commit si fn retorna nil; Rollback en cualquier otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error
}

// AlertNotifier recibe las transiciones de alertas ya confirmadas (después del commit).
type AlertNotifier interface {
	Notify(ctx context.Context, transitions []entity.AlertTransition) error
}
