package sales_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/sales"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/memory"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

type engine struct {
	store     *memory.Store
	builder   *sales.SaleBuilder
	lifecycle *sales.Lifecycle
	stats     *sales.StatsUseCase
}

func newEngine(t *testing.T, defaultWorkflow string) *engine {
	t.Helper()
	store := memory.NewStore()
	runner := memory.NewTxRunner(store)
	log := logger.Nop()
	ledger := inventory.NewStockLedger(runner, inventory.NewAlertEmitter(), inventory.NewLogNotifier(log), log)
	builder := sales.NewSaleBuilder(runner, ledger, defaultWorkflow, log)
	repos := store.Repos()
	return &engine{
		store:     store,
		builder:   builder,
		lifecycle: sales.NewLifecycle(runner, ledger, builder, repos.Invoices, log),
		stats:     sales.NewStatsUseCase(memory.NewSalesReportRepository(store), repos.Products),
	}
}

func (e *engine) addProduct(t *testing.T, id string, price, qty, threshold int64) {
	t.Helper()
	require.NoError(t, e.store.Repos().Products.Create(context.Background(), &entity.Product{
		ID: id, Name: "Producto " + id, SKU: "SKU-" + id, PriceCents: price, CostCents: price / 2,
		Quantity: qty, LowStockThreshold: threshold,
	}))
}

func (e *engine) product(t *testing.T, id string) *entity.Product {
	t.Helper()
	p, err := e.store.Repos().Products.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func (e *engine) activeAlert(t *testing.T, productID string) *entity.StockAlert {
	t.Helper()
	a, err := e.store.Repos().Alerts.GetActiveByProduct(context.Background(), productID)
	require.NoError(t, err)
	return a
}

func (e *engine) invoiceCount(t *testing.T) int {
	t.Helper()
	_, total, err := e.store.Repos().Invoices.List(context.Background(), repository.InvoiceFilter{})
	require.NoError(t, err)
	return total
}

func basket(items ...inventory.ReservationRequest) sales.SaleInput {
	return sales.SaleInput{Items: items}
}

func item(id string, qty int64) inventory.ReservationRequest {
	return inventory.ReservationRequest{ProductID: id, Quantity: qty}
}

// ── BuildSale ─────────────────────────────────────────────────────────────

func TestBuildSale_EscenarioP1(t *testing.T) {
	e := newEngine(t, sales.WorkflowDirect)
	e.addProduct(t, "P1", 1000, 10, 3)

	inv, err := e.builder.BuildSale(context.Background(), basket(item("P1", 8)))
	require.NoError(t, err)

	assert.Equal(t, int64(8000), inv.SubtotalCents)
	assert.Equal(t, int64(0), inv.TaxCents)
	assert.Equal(t, int64(8000), inv.TotalCents)
	assert.Equal(t, entity.InvoiceStatusCompleted, inv.Status)
	assert.Equal(t, entity.PaymentMethodCash, inv.PaymentMethod)
	assert.Regexp(t, `^INV-\d{8}-[0-9A-F]{8}$`, inv.Number)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, int64(1000), inv.Items[0].UnitPriceCents)
	assert.Equal(t, int64(8000), inv.Items[0].SubtotalCents)

	assert.Equal(t, int64(2), e.product(t, "P1").Quantity)
	alert := e.activeAlert(t, "P1")
	require.NotNil(t, alert)
	assert.Equal(t, int64(2), alert.CurrentQuantity)
	assert.Equal(t, int64(3), alert.Threshold)
}

func TestBuildSale_StockInsuficienteNoCreaFactura(t *testing.T) {
	e := newEngine(t, sales.WorkflowDirect)
	e.addProduct(t, "P1", 1000, 2, 3)

	_, err := e.builder.BuildSale(context.Background(), basket(item("P1", 5)))
	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "P1", stockErr.ProductID)
	assert.Equal(t, int64(5), stockErr.Requested)
	assert.Equal(t, int64(2), stockErr.Available)

	assert.Equal(t, int64(2), e.product(t, "P1").Quantity)
	assert.Equal(t, 0, e.invoiceCount(t))
}

func TestBuildSale_TotalesConImpuesto(t *testing.T) {
	e := newEngine(t, sales.WorkflowDirect)
	e.addProduct(t, "A", 1999, 50, 0)
	e.addProduct(t, "B", 250, 50, 0)

	in := basket(item("B", 3), item("A", 2), item("B", 1))
	in.TaxCents = 612
	in.PaymentMethod = "CARD"
	in.CashierID = "cajero-1"
	inv, err := e.builder.BuildSale(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, inv.Items, 2, "las líneas repetidas se fusionan")
	var sum int64
	for _, it := range inv.Items {
		assert.Equal(t, it.UnitPriceCents*it.Quantity, it.SubtotalCents)
		sum += it.SubtotalCents
	}
	assert.Equal(t, sum, inv.SubtotalCents)
	assert.Equal(t, int64(2*1999+4*250), inv.SubtotalCents)
	assert.Equal(t, inv.SubtotalCents+inv.TaxCents, inv.TotalCents)
	assert.Equal(t, entity.PaymentMethodCard, inv.PaymentMethod)
	assert.Equal(t, "cajero-1", inv.CashierID)
	assert.Equal(t, "B", inv.Items[0].ProductID, "orden de aparición en la canasta")
}

func TestBuildSale_PrecioCongelado(t *testing.T) {
	e := newEngine(t, sales.WorkflowDirect)
	e.addProduct(t, "P1", 1000, 10, 0)
	ctx := context.Background()

	inv, err := e.builder.BuildSale(ctx, basket(item("P1", 2)))
	require.NoError(t, err)

	p := e.product(t, "P1")
	p.PriceCents = 5000
	require.NoError(t, e.store.Repos().Products.Update(ctx, p))

	stored, err := e.lifecycle.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), stored.Items[0].UnitPriceCents)
	assert.Equal(t, int64(2000), stored.TotalCents)
}

func TestBuildSale_Validacion(t *testing.T) {
	e := newEngine(t, sales.WorkflowDirect)
	e.addProduct(t, "P1", 1000, 10, 0)

	cases := map[string]sales.SaleInput{
		"canasta vacía":   {},
		"cantidad cero":   basket(item("P1", 0)),
		"impuesto < 0":    {Items: []inventory.ReservationRequest{item("P1", 1)}, TaxCents: -1},
		"medio de pago":   {Items: []inventory.ReservationRequest{item("P1", 1)}, PaymentMethod: "crypto"},
		"flujo":           {Items: []inventory.ReservationRequest{item("P1", 1)}, Workflow: "otro"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.builder.BuildSale(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Equal(t, int64(10), e.product(t, "P1").Quantity)
	assert.Equal(t, 0, e.invoiceCount(t))
}

func TestBuildSale_DesbordamientoEsValidacion(t *testing.T) {
	e := newEngine(t, sales.WorkflowDirect)
	e.addProduct(t, "P1", 1<<62, 10, 0)

	_, err := e.builder.BuildSale(context.Background(), basket(item("P1", 4)))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int64(10), e.product(t, "P1").Quantity, "el rollback devuelve el stock")
}

func TestBuildSale_FlujoPorDefectoAcceptance(t *testing.T) {
	e := newEngine(t, sales.WorkflowAcceptance)
	e.addProduct(t, "P1", 1000, 10, 0)

	inv, err := e.builder.BuildSale(context.Background(), basket(item("P1", 1)))
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPending, inv.Status)

	in := basket(item("P1", 1))
	in.Workflow = sales.WorkflowDirect
	inv, err = e.builder.BuildSale(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusCompleted, inv.Status)
}

// ── Lifecycle ─────────────────────────────────────────────────────────────

func TestLifecycle_AceptarYCompletar(t *testing.T) {
	e := newEngine(t, sales.WorkflowDirect)
	e.addProduct(t, "P1", 1000, 10, 0)
	ctx := context.Background()

	inv, err := e.lifecycle.Create(ctx, basket(item("P1", 1)))
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPending, inv.Status)

	_, err = e.lifecycle.Complete(ctx, inv.ID)
	var te *domain.InvalidTransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "PENDING", te.From)
	assert.Equal(t, "COMPLETED", te.To)

	inv, err = e.lifecycle.Accept(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusAccepted, inv.Status)

	inv, err = e.lifecycle.Complete(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusCompleted, inv.Status)

	_, err = e.lifecycle.Accept(ctx, inv.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, err := e.lifecycle.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusCompleted, stored.Status, "una transición inválida no cambia el estado")
}

func TestLifecycle_CancelarAceptadaRestauraStockYLimpiaAlerta(t *testing.T) {
	e := newEngine(t, sales.WorkflowAcceptance)
	e.addProduct(t, "P1", 1000, 10, 3)
	ctx := context.Background()

	inv, err := e.builder.BuildSale(ctx, basket(item("P1", 8)))
	require.NoError(t, err)
	_, err = e.lifecycle.Accept(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, e.activeAlert(t, "P1"))

	cancelled, err := e.lifecycle.Cancel(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusCancelled, cancelled.Status)
	assert.Equal(t, int64(10), e.product(t, "P1").Quantity)
	assert.Nil(t, e.activeAlert(t, "P1"))

	cleared, err := e.store.Repos().Alerts.List(ctx, entity.AlertStatusCleared)
	require.NoError(t, err)
	assert.Len(t, cleared, 1)
}

func TestLifecycle_CancelarDosVecesEsNoOp(t *testing.T) {
	e := newEngine(t, sales.WorkflowAcceptance)
	e.addProduct(t, "P1", 1000, 10, 0)
	ctx := context.Background()

	inv, err := e.builder.BuildSale(ctx, basket(item("P1", 4)))
	require.NoError(t, err)

	_, err = e.lifecycle.Cancel(ctx, inv.ID)
	require.NoError(t, err)
	again, err := e.lifecycle.Cancel(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusCancelled, again.Status)
	assert.Equal(t, int64(10), e.product(t, "P1").Quantity)
}

func TestLifecycle_CancelarCompletadaEsInvalido(t *testing.T) {
	e := newEngine(t, sales.WorkflowDirect)
	e.addProduct(t, "P1", 1000, 10, 0)
	ctx := context.Background()

	inv, err := e.builder.BuildSale(ctx, basket(item("P1", 4)))
	require.NoError(t, err)

	_, err = e.lifecycle.Cancel(ctx, inv.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, int64(6), e.product(t, "P1").Quantity)
}

func TestLifecycle_FacturaInexistente(t *testing.T) {
	e := newEngine(t, sales.WorkflowDirect)
	ctx := context.Background()

	_, err := e.lifecycle.Accept(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.lifecycle.Cancel(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.lifecycle.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLifecycle_ListFiltraPorEstado(t *testing.T) {
	e := newEngine(t, sales.WorkflowDirect)
	e.addProduct(t, "P1", 1000, 10, 0)
	ctx := context.Background()

	_, err := e.builder.BuildSale(ctx, basket(item("P1", 1)))
	require.NoError(t, err)
	_, err = e.lifecycle.Create(ctx, basket(item("P1", 1)))
	require.NoError(t, err)

	list, total, err := e.lifecycle.List(ctx, repository.InvoiceFilter{Status: entity.InvoiceStatusPending, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, list, 1)

	_, _, err = e.lifecycle.List(ctx, repository.InvoiceFilter{Status: "RARO"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ── Stats ─────────────────────────────────────────────────────────────────

func TestStats_ExcluyeCanceladas(t *testing.T) {
	e := newEngine(t, sales.WorkflowAcceptance)
	e.addProduct(t, "P1", 1000, 10, 3)
	e.addProduct(t, "P2", 400, 10, 0)
	ctx := context.Background()

	_, err := e.builder.BuildSale(ctx, basket(item("P1", 8)))
	require.NoError(t, err)
	cancelled, err := e.builder.BuildSale(ctx, basket(item("P2", 5)))
	require.NoError(t, err)
	_, err = e.lifecycle.Cancel(ctx, cancelled.ID)
	require.NoError(t, err)

	to := time.Now().Add(time.Minute)
	out, err := e.stats.Stats(ctx, nil, &to)
	require.NoError(t, err)
	assert.Equal(t, 1, out.InvoiceCount)
	assert.Equal(t, int64(8), out.UnitsSold)
	assert.Equal(t, int64(8000), out.Revenue)
	assert.Equal(t, int64(4000), out.Cost)
	assert.Equal(t, "50", out.GrossMarginPct.String())
	assert.Equal(t, 1, out.LowStockCount)
	require.Len(t, out.TopProducts, 1)
	assert.Equal(t, "P1", out.TopProducts[0].ProductID)
}
