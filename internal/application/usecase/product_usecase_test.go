package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/usecase"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/memory"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

func newProductUseCase(t *testing.T) (*usecase.ProductUseCase, *inventory.LowStockUseCase) {
	t.Helper()
	store := memory.NewStore()
	runner := memory.NewTxRunner(store)
	emitter := inventory.NewAlertEmitter()
	ledger := inventory.NewStockLedger(runner, emitter, nil, logger.Nop())
	repos := store.Repos()
	return usecase.NewProductUseCase(runner, repos.Products, emitter, ledger),
		inventory.NewLowStockUseCase(repos.Products, repos.Alerts)
}

func ptr[T any](v T) *T { return &v }

func TestNormalizeSKU(t *testing.T) {
	assert.Equal(t, "ABC-12", usecase.NormalizeSKU("  abc-12 "))
	assert.Equal(t, "ÑANDÚ", usecase.NormalizeSKU("ñandú"))
}

func TestProductUseCase_CreateNormalizaYDetectaDuplicado(t *testing.T) {
	uc, _ := newProductUseCase(t)
	ctx := context.Background()

	out, err := uc.Create(ctx, dto.CreateProductRequest{SKU: " cafe-01", Name: "Café", Price: 1200, Cost: 700, Quantity: 40})
	require.NoError(t, err)
	assert.Equal(t, "CAFE-01", out.SKU)
	assert.Equal(t, int64(10), out.LowStockThreshold, "umbral por defecto")
	assert.Equal(t, "12.00", out.PriceFormatted)

	_, err = uc.Create(ctx, dto.CreateProductRequest{SKU: "CAFE-01", Name: "Otro"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestProductUseCase_CreateConPocoStockLevantaAlerta(t *testing.T) {
	uc, low := newProductUseCase(t)
	ctx := context.Background()

	out, err := uc.Create(ctx, dto.CreateProductRequest{SKU: "T-1", Name: "Té", Price: 500, Quantity: 2, LowStockThreshold: ptr(int64(5))})
	require.NoError(t, err)
	assert.True(t, out.LowStock)

	list, err := low.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, out.ID, list[0].ID)
}

func TestProductUseCase_UpdateUmbralReevaluaAlerta(t *testing.T) {
	uc, low := newProductUseCase(t)
	ctx := context.Background()

	out, err := uc.Create(ctx, dto.CreateProductRequest{SKU: "T-1", Name: "Té", Price: 500, Quantity: 8, LowStockThreshold: ptr(int64(5))})
	require.NoError(t, err)

	updated, err := uc.Update(ctx, out.ID, dto.UpdateProductRequest{LowStockThreshold: ptr(int64(8)), Price: ptr(int64(650))})
	require.NoError(t, err)
	assert.Equal(t, int64(650), updated.Price)
	assert.Equal(t, int64(8), updated.Quantity, "la actualización no toca la cantidad")

	list, err := low.ListLowStock(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	alerts, err := low.ListAlerts(ctx, "active")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, int64(8), alerts[0].Threshold)

	_, err = uc.Update(ctx, "no-existe", dto.UpdateProductRequest{Name: ptr("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductUseCase_RestockLimpiaAlerta(t *testing.T) {
	uc, low := newProductUseCase(t)
	ctx := context.Background()

	out, err := uc.Create(ctx, dto.CreateProductRequest{SKU: "T-1", Name: "Té", Price: 500, Quantity: 1, LowStockThreshold: ptr(int64(5))})
	require.NoError(t, err)

	lvl, err := uc.Restock(ctx, out.ID, dto.RestockRequest{Quantity: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(11), lvl.Quantity)
	assert.False(t, lvl.LowStock)

	list, err := low.ListLowStock(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = uc.Restock(ctx, out.ID, dto.RestockRequest{Quantity: 11, UnitCost: ptr(int64(300))})
	require.NoError(t, err)
	got, err := uc.GetByID(ctx, out.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(150), got.Cost, "promedio de 11 a 0 y 11 a 300")

	cleared, err := low.ListAlerts(ctx, "cleared")
	require.NoError(t, err)
	assert.Len(t, cleared, 1)

	_, err = low.ListAlerts(ctx, "raro")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProductUseCase_ListBuscaPorNombreOSKU(t *testing.T) {
	uc, _ := newProductUseCase(t)
	ctx := context.Background()
	for _, in := range []dto.CreateProductRequest{
		{SKU: "CAF-1", Name: "Café molido", Category: "bebidas", Quantity: 20},
		{SKU: "TE-1", Name: "Té verde", Category: "bebidas", Quantity: 20},
		{SKU: "PAN-1", Name: "Pan", Category: "panadería", Quantity: 20},
	} {
		_, err := uc.Create(ctx, in)
		require.NoError(t, err)
	}

	out, err := uc.List(ctx, "caf", "", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Page.Total)

	out, err = uc.List(ctx, "", "BEBIDAS", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Page.Total)
	assert.Len(t, out.Items, 1)
}
