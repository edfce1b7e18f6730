package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo facturas en memoria; las líneas viajan embebidas en la cabecera.
type InvoiceRepo struct {
	base
}

func (r *InvoiceRepo) Create(_ context.Context, invoice *entity.Invoice) error {
	return r.write(func(t *tx) error {
		t.lock(lockInvoice + invoice.ID)
		if t.invoice(invoice.ID) != nil {
			return fmt.Errorf("factura %s: %w", invoice.ID, domain.ErrDuplicate)
		}
		t.invoices[invoice.ID] = copyInvoice(invoice)
		return nil
	})
}

func (r *InvoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	return r.view().invoice(id), nil
}

// GetForUpdate bloquea la factura hasta el fin de la transacción.
func (r *InvoiceRepo) GetForUpdate(_ context.Context, id string) (*entity.Invoice, error) {
	if r.t == nil {
		return r.view().invoice(id), nil
	}
	r.t.lock(lockInvoice + id)
	return r.t.invoice(id), nil
}

func (r *InvoiceRepo) UpdateStatus(_ context.Context, id string, status entity.InvoiceStatus, at time.Time) error {
	return r.write(func(t *tx) error {
		t.lock(lockInvoice + id)
		inv := t.invoice(id)
		if inv == nil {
			return fmt.Errorf("factura %s: %w", id, domain.ErrNotFound)
		}
		inv.Status = status
		inv.UpdatedAt = at
		t.invoices[id] = inv
		return nil
	})
}

// List más recientes primero; las facturas del listado no llevan líneas.
func (r *InvoiceRepo) List(_ context.Context, filter repository.InvoiceFilter) ([]*entity.Invoice, int, error) {
	var matched []*entity.Invoice
	for _, inv := range r.view().allInvoices() {
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		if filter.From != nil && inv.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !inv.CreatedAt.Before(*filter.To) {
			continue
		}
		inv.Items = nil
		matched = append(matched, inv)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return paginate(matched, filter.Limit, filter.Offset), len(matched), nil
}
