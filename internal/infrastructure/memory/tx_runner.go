package memory

import (
	"context"

	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/sales"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)
var _ sales.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción en memoria.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner sobre el almacén.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run ejecuta fn con repos atados a la tx. Si fn retorna error el buffer se descarta;
// los bloqueos se sueltan siempre, también ante un panic.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := r.s.begin()
	defer t.release()
	if err := fn(ctx, newRepos(r.s, t)); err != nil {
		return err
	}
	t.commit()
	return nil
}
