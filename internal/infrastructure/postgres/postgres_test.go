package postgres_test

import (
	"context"
	"flag"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/sales"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/migration"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Ventas-api/pkg/config"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

var (
	containerOnce sync.Once
	container     *tcpostgres.PostgresContainer
	containerDSN  string
	containerErr  error
)

func TestMain(m *testing.M) {
	flag.Parse()
	code := m.Run()
	if container != nil {
		_ = container.Terminate(context.Background())
	}
	os.Exit(code)
}

func startContainer() {
	ctx := context.Background()
	container, containerErr = tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ventas_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if containerErr != nil {
		return
	}
	containerDSN, containerErr = container.ConnectionString(ctx, "sslmode=disable")
	if containerErr != nil {
		return
	}
	m, err := migration.New(containerDSN, logger.Nop())
	if err != nil {
		containerErr = err
		return
	}
	defer m.Close()
	containerErr = m.Up()
}

// openDB devuelve un pool sobre una base migrada y vacía.
func openDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integración con PostgreSQL omitida en modo -short")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	containerOnce.Do(startContainer)
	require.NoError(t, containerErr, "levantar PostgreSQL")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: containerDSN, MaxConns: 20})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE stock_alerts, invoice_items, invoices, reservation_lines, reservations, products CASCADE`)
	require.NoError(t, err)
	return pool
}

func seed(t *testing.T, pool *pgxpool.Pool, id string, price, qty, threshold int64) {
	t.Helper()
	now := time.Now()
	require.NoError(t, postgres.NewProductRepository(pool).Create(context.Background(), &entity.Product{
		ID: id, SKU: "SKU-" + id, Name: "Producto " + id, PriceCents: price, CostCents: price / 2,
		Quantity: qty, LowStockThreshold: threshold, CreatedAt: now, UpdatedAt: now,
	}))
}

func quantity(t *testing.T, pool *pgxpool.Pool, id string) int64 {
	t.Helper()
	p, err := postgres.NewProductRepository(pool).GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Quantity
}

func newLedger(pool *pgxpool.Pool) (*postgres.TxRunner, *inventory.StockLedger) {
	runner := postgres.NewTxRunner(pool)
	return runner, inventory.NewStockLedger(runner, inventory.NewAlertEmitter(), nil, logger.Nop())
}

// ── Libro de stock ──

func TestPostgres_ReservaTodoONada(t *testing.T) {
	pool := openDB(t)
	_, ledger := newLedger(pool)
	ctx := context.Background()
	seed(t, pool, "P1", 1000, 5, 1)
	seed(t, pool, "P2", 1000, 1, 0)

	_, err := ledger.Reserve(ctx, []inventory.ReservationRequest{{ProductID: "P1", Quantity: 2}, {ProductID: "P2", Quantity: 3}})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "P2", insufficient.ProductID)
	assert.Equal(t, int64(5), quantity(t, pool, "P1"), "nada se descuenta si una línea falla")

	res, err := ledger.Reserve(ctx, []inventory.ReservationRequest{{ProductID: "P2", Quantity: 1}, {ProductID: "P1", Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, "P1", res.Lines[0].ProductID)
	assert.Equal(t, int64(3), quantity(t, pool, "P1"))
	assert.Equal(t, int64(0), quantity(t, pool, "P2"))

	_, err = ledger.Release(ctx, res.ID)
	require.NoError(t, err)
	_, err = ledger.Release(ctx, res.ID)
	require.NoError(t, err, "liberar dos veces es un no-op")
	assert.Equal(t, int64(5), quantity(t, pool, "P1"))
	assert.Equal(t, int64(1), quantity(t, pool, "P2"))
}

func TestPostgres_ReservasConcurrentesNoSobrevenden(t *testing.T) {
	pool := openDB(t)
	_, ledger := newLedger(pool)
	seed(t, pool, "P1", 1000, 10, 0)
	seed(t, pool, "P2", 1000, 10, 0)

	var (
		wg sync.WaitGroup
		ok atomic.Int64
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reqs := []inventory.ReservationRequest{{ProductID: "P1", Quantity: 3}, {ProductID: "P2", Quantity: 3}}
			if i%2 == 1 {
				reqs[0], reqs[1] = reqs[1], reqs[0]
			}
			if _, err := ledger.Reserve(context.Background(), reqs); err == nil {
				ok.Add(1)
			} else {
				assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(3), ok.Load())
	assert.Equal(t, int64(1), quantity(t, pool, "P1"))
	assert.Equal(t, int64(1), quantity(t, pool, "P2"))
}

func TestPostgres_ProductoInexistente(t *testing.T) {
	pool := openDB(t)
	_, ledger := newLedger(pool)

	_, err := ledger.Reserve(context.Background(), []inventory.ReservationRequest{{ProductID: "NOPE", Quantity: 1}})
	var nf *domain.ProductNotFoundError
	require.ErrorAs(t, err, &nf)

	_, err = postgres.NewStockRepository(pool).AddQuantity(context.Background(), "NOPE", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ── Ventas ──

func TestPostgres_VentaCancelacionYEstadisticas(t *testing.T) {
	pool := openDB(t)
	runner, ledger := newLedger(pool)
	ctx := context.Background()
	log := logger.Nop()
	seed(t, pool, "P1", 4000, 4, 2)

	builder := sales.NewSaleBuilder(runner, ledger, sales.WorkflowDirect, log)
	lifecycle := sales.NewLifecycle(runner, ledger, builder, postgres.NewInvoiceRepository(pool), log)
	stats := sales.NewStatsUseCase(postgres.NewSalesReportRepository(pool), postgres.NewProductRepository(pool))

	inv, err := builder.BuildSale(ctx, sales.SaleInput{Items: []inventory.ReservationRequest{{ProductID: "P1", Quantity: 2}}, TaxCents: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(8100), inv.TotalCents)
	assert.Equal(t, entity.InvoiceStatusCompleted, inv.Status)

	stored, err := lifecycle.Get(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, int64(4000), stored.Items[0].UnitPriceCents)

	alert, err := postgres.NewStockAlertRepository(pool).GetActiveByProduct(ctx, "P1")
	require.NoError(t, err)
	require.NotNil(t, alert, "cantidad 2 con umbral 2 levanta alerta")

	out, err := stats.Stats(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, out.InvoiceCount)
	assert.Equal(t, int64(8000), out.Revenue)
	assert.Equal(t, "50", out.GrossMarginPct.String())
	assert.Equal(t, 1, out.LowStockCount)

	pending, err := lifecycle.Create(ctx, sales.SaleInput{Items: []inventory.ReservationRequest{{ProductID: "P1", Quantity: 1}}})
	require.NoError(t, err)
	_, err = lifecycle.Cancel(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), quantity(t, pool, "P1"))

	list, total, err := lifecycle.List(ctx, repository.InvoiceFilter{Status: entity.InvoiceStatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Empty(t, list[0].Items)

	out, err = stats.Stats(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, out.InvoiceCount, "las canceladas no cuentan")
}

// ── Alertas y catálogo ──

func TestPostgres_UnaAlertaActivaPorProducto(t *testing.T) {
	pool := openDB(t)
	seed(t, pool, "P1", 1000, 1, 5)
	repo := postgres.NewStockAlertRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entity.StockAlert{ID: "a1", ProductID: "P1", CurrentQuantity: 1, Threshold: 5, Status: entity.AlertStatusActive, CreatedAt: time.Now()}))
	err := repo.Create(ctx, &entity.StockAlert{ID: "a2", ProductID: "P1", CurrentQuantity: 1, Threshold: 5, Status: entity.AlertStatusActive, CreatedAt: time.Now()})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	require.NoError(t, repo.Clear(ctx, "a1", 9, time.Now()))
	assert.ErrorIs(t, repo.Clear(ctx, "a1", 9, time.Now()), domain.ErrNotFound)
	require.NoError(t, repo.Create(ctx, &entity.StockAlert{ID: "a3", ProductID: "P1", CurrentQuantity: 0, Threshold: 5, Status: entity.AlertStatusActive, CreatedAt: time.Now()}))

	cleared, err := repo.List(ctx, entity.AlertStatusCleared)
	require.NoError(t, err)
	require.Len(t, cleared, 1)
	assert.NotNil(t, cleared[0].ClearedAt)
}

func TestPostgres_ListadoDeProductos(t *testing.T) {
	pool := openDB(t)
	seed(t, pool, "A", 1000, 1, 0)
	seed(t, pool, "B", 1000, 1, 0)
	seed(t, pool, "C_1", 1000, 1, 0)
	repo := postgres.NewProductRepository(pool)
	ctx := context.Background()

	list, total, err := repo.List(ctx, repository.ProductFilter{Search: "sku-", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, list, 2)

	_, total, err = repo.List(ctx, repository.ProductFilter{Search: "_"})
	require.NoError(t, err)
	assert.Equal(t, 1, total, "el guion bajo se busca literal")

	err = repo.Create(ctx, &entity.Product{ID: "D", SKU: "SKU-A", Name: "x", CreatedAt: time.Now(), UpdatedAt: time.Now()})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	byID, err := repo.GetByIDs(ctx, []string{"A", "B", "NOPE"})
	require.NoError(t, err)
	assert.Len(t, byID, 2)
}
