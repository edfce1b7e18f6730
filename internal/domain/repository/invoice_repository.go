package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

// InvoiceFilter filtros del listado de ventas.
type InvoiceFilter struct {
	Status entity.InvoiceStatus
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// InvoiceRepository define el puerto de persistencia para Invoice y sus líneas.
type InvoiceRepository interface {
	// Create guarda cabecera y líneas.
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// GetForUpdate bloquea la cabecera (SELECT FOR UPDATE) para transiciones de estado.
	GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error)
	UpdateStatus(ctx context.Context, id string, status entity.InvoiceStatus, at time.Time) error
	// List devuelve la página (sin líneas) y el total de registros del filtro.
	List(ctx context.Context, filter InvoiceFilter) ([]*entity.Invoice, int, error)
}
