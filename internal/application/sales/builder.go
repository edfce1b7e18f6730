package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/pkg/logger"
	"github.com/jhoicas/Ventas-api/pkg/money"
)

// Flujos de venta: direct deja la factura COMPLETED; acceptance la deja PENDING hasta que otra persona la acepte.
const (
	WorkflowDirect     = "direct"
	WorkflowAcceptance = "acceptance"
)

const maxNotesLength = 500

// SaleInput canasta y datos de cabecera. TaxCents lo fija el caller (cero si no aplica).
type SaleInput struct {
	Items         []inventory.ReservationRequest
	TaxCents      int64
	PaymentMethod string
	Notes         string
	CashierID     string
	Workflow      string
}

// SaleBuilder convierte una canasta en una factura con precios congelados, descontando el stock
// y guardando la factura en una sola transacción.
type SaleBuilder struct {
	txRunner        TxRunner
	ledger          *inventory.StockLedger
	defaultWorkflow string
	log             *logger.Logger
	now             func() time.Time
}

// NewSaleBuilder construye el caso de uso. defaultWorkflow vacío equivale a direct.
func NewSaleBuilder(txRunner TxRunner, ledger *inventory.StockLedger, defaultWorkflow string, log *logger.Logger) *SaleBuilder {
	if defaultWorkflow == "" {
		defaultWorkflow = WorkflowDirect
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SaleBuilder{
		txRunner:        txRunner,
		ledger:          ledger,
		defaultWorkflow: defaultWorkflow,
		log:             log.Component("sale_builder"),
		now:             time.Now,
	}
}

// BuildSale valida la canasta, reserva el stock, congela precios y persiste la factura.
// Si la reserva falla devuelve el mismo error del libro de stock y no se crea factura.
func (b *SaleBuilder) BuildSale(ctx context.Context, in SaleInput) (*entity.Invoice, error) {
	lines, err := inventory.NormalizeRequests(in.Items)
	if err != nil {
		return nil, err
	}
	if in.TaxCents < 0 {
		return nil, domain.NewValidationError("tax", "no puede ser negativo")
	}
	payment := strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	if payment == "" {
		payment = entity.PaymentMethodCash
	}
	if !entity.ValidPaymentMethod(payment) {
		return nil, domain.NewValidationError("payment_method", "debe ser cash, card o check")
	}
	workflow := in.Workflow
	if workflow == "" {
		workflow = b.defaultWorkflow
	}
	status, err := initialStatus(workflow)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(in.Notes) > maxNotesLength {
		return nil, domain.NewValidationError("notes", fmt.Sprintf("máximo %d caracteres", maxNotesLength))
	}

	var (
		inv         *entity.Invoice
		transitions []entity.AlertTransition
	)
	err = b.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		// 1) Reserva todo o nada; bloquea las filas de producto hasta el commit.
		res, tr, err := b.ledger.ReserveInTx(ctx, repos, lines)
		if err != nil {
			return err
		}
		transitions = tr

		// 2) Precio y costo vigentes; las filas ya están bloqueadas, la foto coincide con lo descontado.
		ids := make([]string, len(lines))
		for i, ln := range lines {
			ids[i] = ln.ProductID
		}
		products, err := repos.Products.GetByIDs(ctx, ids)
		if err != nil {
			return err
		}

		now := b.now()
		invoiceID := uuid.New().String()
		items, subtotal, err := priceLines(invoiceID, lines, products)
		if err != nil {
			return err
		}
		total, err := money.Add(subtotal, in.TaxCents)
		if err != nil {
			return domain.NewValidationError("tax", "el total excede el rango permitido")
		}

		inv = &entity.Invoice{
			ID:            invoiceID,
			Number:        invoiceNumber(now, invoiceID),
			Items:         items,
			SubtotalCents: subtotal,
			TaxCents:      in.TaxCents,
			TotalCents:    total,
			Status:        status,
			PaymentMethod: payment,
			CashierID:     in.CashierID,
			Notes:         in.Notes,
			ReservationID: res.ID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return repos.Invoices.Create(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	b.ledger.Publish(ctx, transitions)
	b.log.Info().
		Str("invoice_id", inv.ID).
		Str("number", inv.Number).
		Str("status", string(inv.Status)).
		Int64("total", inv.TotalCents).
		Int("lineas", len(inv.Items)).
		Msg("venta registrada")
	return inv, nil
}

// priceLines congela precio y costo por línea y calcula el subtotal en centavos.
func priceLines(invoiceID string, lines []inventory.ReservationRequest, products map[string]*entity.Product) ([]entity.LineItem, int64, error) {
	items := make([]entity.LineItem, 0, len(lines))
	var subtotal int64
	for _, ln := range lines {
		p, ok := products[ln.ProductID]
		if !ok || p == nil {
			return nil, 0, &domain.ProductNotFoundError{ProductID: ln.ProductID}
		}
		lineTotal, err := money.Mul(p.PriceCents, ln.Quantity)
		if err != nil {
			return nil, 0, overflowError(err, ln.ProductID)
		}
		if subtotal, err = money.Add(subtotal, lineTotal); err != nil {
			return nil, 0, overflowError(err, ln.ProductID)
		}
		items = append(items, entity.LineItem{
			ID:             uuid.New().String(),
			InvoiceID:      invoiceID,
			ProductID:      p.ID,
			ProductName:    p.Name,
			SKU:            p.SKU,
			Quantity:       ln.Quantity,
			UnitPriceCents: p.PriceCents,
			UnitCostCents:  p.CostCents,
			SubtotalCents:  lineTotal,
		})
	}
	return items, subtotal, nil
}

func overflowError(err error, productID string) error {
	if errors.Is(err, money.ErrOverflow) {
		return domain.NewValidationError("items", fmt.Sprintf("el monto de %s excede el rango permitido", productID))
	}
	return err
}

func initialStatus(workflow string) (entity.InvoiceStatus, error) {
	switch workflow {
	case WorkflowDirect:
		return entity.InvoiceStatusCompleted, nil
	case WorkflowAcceptance:
		return entity.InvoiceStatusPending, nil
	}
	return "", domain.NewValidationError("workflow", "debe ser direct o acceptance")
}

// invoiceNumber INV-YYYYMMDD-<8 primeros caracteres del id>.
func invoiceNumber(at time.Time, id string) string {
	return fmt.Sprintf("INV-%s-%s", at.Format("20060102"), strings.ToUpper(id[:8]))
}
