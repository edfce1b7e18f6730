package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `id, number, subtotal_cents, tax_cents, total_cents, status, payment_method,
		cashier_id, notes, reservation_id, created_at, updated_at`

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	err := row.Scan(
		&inv.ID, &inv.Number, &inv.SubtotalCents, &inv.TaxCents, &inv.TotalCents, &inv.Status,
		&inv.PaymentMethod, &inv.CashierID, &inv.Notes, &inv.ReservationID, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Create persiste cabecera y líneas en un solo lote; las líneas conservan su orden.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		invoice.ID, invoice.Number, invoice.SubtotalCents, invoice.TaxCents, invoice.TotalCents,
		invoice.Status, invoice.PaymentMethod, invoice.CashierID, invoice.Notes, invoice.ReservationID,
		invoice.CreatedAt, invoice.UpdatedAt,
	)
	for i, it := range invoice.Items {
		batch.Queue(`
			INSERT INTO invoice_items (id, invoice_id, line_no, product_id, product_name, sku,
			                           quantity, unit_price_cents, unit_cost_cents, subtotal_cents)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			it.ID, invoice.ID, i+1, it.ProductID, it.ProductName, it.SKU,
			it.Quantity, it.UnitPriceCents, it.UnitCostCents, it.SubtotalCents,
		)
	}
	if err := execBatch(r.q.SendBatch(ctx, batch), batch.Len()); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("factura %s: %w", invoice.Number, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// GetByID obtiene una factura completa por ID.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.get(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera hasta el fin de la transacción.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.get(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id)
}

func (r *InvoiceRepo) get(ctx context.Context, query, id string) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	items, err := r.items(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return inv, nil
}

func (r *InvoiceRepo) items(ctx context.Context, invoiceID string) ([]entity.LineItem, error) {
	query := `
		SELECT id, invoice_id, product_id, product_name, sku, quantity,
		       unit_price_cents, unit_cost_cents, subtotal_cents
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY line_no`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get invoice items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.LineItem, error) {
		var it entity.LineItem
		err := row.Scan(&it.ID, &it.InvoiceID, &it.ProductID, &it.ProductName, &it.SKU, &it.Quantity,
			&it.UnitPriceCents, &it.UnitCostCents, &it.SubtotalCents)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan invoice items: %w", err)
	}
	return items, nil
}

// UpdateStatus cambia el estado; las reglas de transición las valida el caso de uso.
func (r *InvoiceRepo) UpdateStatus(ctx context.Context, id string, status entity.InvoiceStatus, at time.Time) error {
	cmd, err := r.q.Exec(ctx, `UPDATE invoices SET status = $2, updated_at = $3 WHERE id = $1`, id, status, at)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("factura %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// List más recientes primero, con CreatedAt en [From, To). Las facturas del listado no llevan líneas.
func (r *InvoiceRepo) List(ctx context.Context, filter repository.InvoiceFilter) ([]*entity.Invoice, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where = append(where, fmt.Sprintf("created_at < $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM invoices`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices` + clause + ` ORDER BY created_at DESC, id`
	query, args = withPage(query, args, filter.Limit, filter.Offset)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	return list, total, nil
}
