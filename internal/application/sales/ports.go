package sales

import (
	"context"

	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción que incluye repos de inventario y ventas.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error
}
