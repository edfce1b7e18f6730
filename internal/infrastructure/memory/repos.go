package memory

import (
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// base comparte el almacén y, si existe, la transacción del caller.
type base struct {
	s *Store
	t *tx
}

// write ejecuta fn en la transacción del caller o en una propia que se confirma al terminar.
func (b base) write(fn func(t *tx) error) error {
	if b.t != nil {
		return fn(b.t)
	}
	t := b.s.begin()
	defer t.release()
	if err := fn(t); err != nil {
		return err
	}
	t.commit()
	return nil
}

// view devuelve la transacción del caller o una vista sin bloqueos del estado confirmado.
func (b base) view() *tx {
	if b.t != nil {
		return b.t
	}
	return b.s.begin()
}

func newRepos(s *Store, t *tx) repository.Repos {
	b := base{s: s, t: t}
	return repository.Repos{
		Products:     &ProductRepo{base: b},
		Stock:        &StockRepo{base: b},
		Reservations: &ReservationRepo{base: b},
		Invoices:     &InvoiceRepo{base: b},
		Alerts:       &StockAlertRepo{base: b},
	}
}

func (t *tx) allProducts() []*entity.Product {
	t.s.mu.RLock()
	out := make(map[string]*entity.Product, len(t.s.products))
	for id, p := range t.s.products {
		out[id] = copyProduct(p)
	}
	t.s.mu.RUnlock()
	for id, p := range t.products {
		out[id] = copyProduct(p)
	}
	list := make([]*entity.Product, 0, len(out))
	for _, p := range out {
		list = append(list, p)
	}
	return list
}

func (t *tx) allInvoices() []*entity.Invoice {
	t.s.mu.RLock()
	out := make(map[string]*entity.Invoice, len(t.s.invoices))
	for id, inv := range t.s.invoices {
		out[id] = copyInvoice(inv)
	}
	t.s.mu.RUnlock()
	for id, inv := range t.invoices {
		out[id] = copyInvoice(inv)
	}
	list := make([]*entity.Invoice, 0, len(out))
	for _, inv := range out {
		list = append(list, inv)
	}
	return list
}

func (t *tx) allAlerts() []*entity.StockAlert {
	t.s.mu.RLock()
	out := make(map[string]*entity.StockAlert, len(t.s.alerts))
	for id, a := range t.s.alerts {
		out[id] = copyAlert(a)
	}
	t.s.mu.RUnlock()
	for id, a := range t.alerts {
		out[id] = copyAlert(a)
	}
	list := make([]*entity.StockAlert, 0, len(out))
	for _, a := range out {
		list = append(list, a)
	}
	return list
}
