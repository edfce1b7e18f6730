package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// Lifecycle máquina de estados de la factura:
// PENDING -> ACCEPTED | CANCELLED, ACCEPTED -> COMPLETED | CANCELLED.
// La cancelación devuelve el stock en la misma transacción.
type Lifecycle struct {
	txRunner    TxRunner
	ledger      *inventory.StockLedger
	builder     *SaleBuilder
	invoiceRepo repository.InvoiceRepository
	log         *logger.Logger
	now         func() time.Time
}

// NewLifecycle construye el caso de uso.
func NewLifecycle(
	txRunner TxRunner,
	ledger *inventory.StockLedger,
	builder *SaleBuilder,
	invoiceRepo repository.InvoiceRepository,
	log *logger.Logger,
) *Lifecycle {
	if log == nil {
		log = logger.Nop()
	}
	return &Lifecycle{
		txRunner:    txRunner,
		ledger:      ledger,
		builder:     builder,
		invoiceRepo: invoiceRepo,
		log:         log.Component("invoice_lifecycle"),
		now:         time.Now,
	}
}

// Create registra la venta en PENDING (borrador del cajero que otra persona acepta).
func (uc *Lifecycle) Create(ctx context.Context, in SaleInput) (*entity.Invoice, error) {
	in.Workflow = WorkflowAcceptance
	return uc.builder.BuildSale(ctx, in)
}

// Accept PENDING -> ACCEPTED.
func (uc *Lifecycle) Accept(ctx context.Context, invoiceID string) (*entity.Invoice, error) {
	return uc.transition(ctx, invoiceID, entity.InvoiceStatusAccepted)
}

// Complete ACCEPTED -> COMPLETED (terminal).
func (uc *Lifecycle) Complete(ctx context.Context, invoiceID string) (*entity.Invoice, error) {
	return uc.transition(ctx, invoiceID, entity.InvoiceStatusCompleted)
}

func (uc *Lifecycle) transition(ctx context.Context, invoiceID string, to entity.InvoiceStatus) (*entity.Invoice, error) {
	var inv *entity.Invoice
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		inv, err = lockInvoice(ctx, repos, invoiceID)
		if err != nil {
			return err
		}
		if !inv.Status.CanTransitionTo(to) {
			return &domain.InvalidTransitionError{From: string(inv.Status), To: string(to)}
		}
		now := uc.now()
		if err := repos.Invoices.UpdateStatus(ctx, inv.ID, to, now); err != nil {
			return err
		}
		inv.Status = to
		inv.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("invoice_id", inv.ID).Str("status", string(to)).Msg("estado de factura actualizado")
	return inv, nil
}

// Cancel PENDING/ACCEPTED -> CANCELLED y libera la reserva en la misma transacción.
// Cancelar una factura ya cancelada devuelve la factura sin cambios (reintentos).
func (uc *Lifecycle) Cancel(ctx context.Context, invoiceID string) (*entity.Invoice, error) {
	var (
		inv         *entity.Invoice
		transitions []entity.AlertTransition
		noop        bool
	)
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		inv, err = lockInvoice(ctx, repos, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status == entity.InvoiceStatusCancelled {
			noop = true
			return nil
		}
		if !inv.Status.CanTransitionTo(entity.InvoiceStatusCancelled) {
			return &domain.InvalidTransitionError{From: string(inv.Status), To: string(entity.InvoiceStatusCancelled)}
		}
		_, transitions, err = uc.ledger.ReleaseInTx(ctx, repos, inv.ReservationID)
		if err != nil {
			return err
		}
		now := uc.now()
		if err := repos.Invoices.UpdateStatus(ctx, inv.ID, entity.InvoiceStatusCancelled, now); err != nil {
			return err
		}
		inv.Status = entity.InvoiceStatusCancelled
		inv.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	if noop {
		return inv, nil
	}
	uc.ledger.Publish(ctx, transitions)
	uc.log.Info().Str("invoice_id", inv.ID).Str("reservation_id", inv.ReservationID).Msg("factura cancelada, stock liberado")
	return inv, nil
}

// Get factura con sus líneas.
func (uc *Lifecycle) Get(ctx context.Context, invoiceID string) (*entity.Invoice, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("factura %s: %w", invoiceID, domain.ErrNotFound)
	}
	return inv, nil
}

// List página de facturas y total del filtro.
func (uc *Lifecycle) List(ctx context.Context, filter repository.InvoiceFilter) ([]*entity.Invoice, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, domain.NewValidationError("status", "estado desconocido")
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, domain.NewValidationError("to", "debe ser posterior a from")
	}
	return uc.invoiceRepo.List(ctx, filter)
}

func lockInvoice(ctx context.Context, repos repository.Repos, invoiceID string) (*entity.Invoice, error) {
	if invoiceID == "" {
		return nil, domain.NewValidationError("id", "es obligatorio")
	}
	inv, err := repos.Invoices.GetForUpdate(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("factura %s: %w", invoiceID, domain.ErrNotFound)
	}
	return inv, nil
}
