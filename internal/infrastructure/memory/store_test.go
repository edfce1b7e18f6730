package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

func seedProduct(t *testing.T, s *Store, id string, qty, threshold int64) {
	t.Helper()
	err := s.Repos().Products.Create(context.Background(), &entity.Product{
		ID:                id,
		Name:              "Producto " + id,
		SKU:               "SKU-" + id,
		PriceCents:        1000,
		CostCents:         600,
		Quantity:          qty,
		LowStockThreshold: threshold,
	})
	require.NoError(t, err)
}

func TestTxRunner_RollbackDescartaEscrituras(t *testing.T) {
	s := NewStore()
	seedProduct(t, s, "P1", 10, 3)
	runner := NewTxRunner(s)

	boom := errors.New("boom")
	err := runner.Run(context.Background(), func(ctx context.Context, repos repository.Repos) error {
		_, err := repos.Stock.AddQuantity(ctx, "P1", -4)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := s.Repos().Products.GetByID(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), p.Quantity)
	assert.Equal(t, 0, s.locks.size(), "los bloqueos deben liberarse tras el rollback")
}

func TestTxRunner_CommitAplicaYLiberaBloqueos(t *testing.T) {
	s := NewStore()
	seedProduct(t, s, "P1", 10, 3)
	runner := NewTxRunner(s)

	err := runner.Run(context.Background(), func(ctx context.Context, repos repository.Repos) error {
		levels, err := repos.Stock.LockLevels(ctx, []string{"P1", "NOPE", "P1"})
		require.NoError(t, err)
		assert.Len(t, levels, 1)
		_, err = repos.Stock.AddQuantity(ctx, "P1", -4)
		return err
	})
	require.NoError(t, err)

	p, _ := s.Repos().Products.GetByID(context.Background(), "P1")
	assert.Equal(t, int64(6), p.Quantity)
	assert.Equal(t, int64(1), p.Version)
	assert.Equal(t, 0, s.locks.size())
}

func TestTxRunner_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewTxRunner(NewStore()).Run(ctx, func(context.Context, repository.Repos) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStockRepo_AddQuantityNoPermiteNegativos(t *testing.T) {
	s := NewStore()
	seedProduct(t, s, "P1", 2, 0)

	_, err := s.Repos().Stock.AddQuantity(context.Background(), "P1", -3)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = s.Repos().Stock.AddQuantity(context.Background(), "X", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	lvl, err := s.Repos().Stock.AddQuantity(context.Background(), "P1", -2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), lvl.Quantity)
}

func TestProductRepo_SKUDuplicado(t *testing.T) {
	s := NewStore()
	seedProduct(t, s, "P1", 1, 0)
	err := s.Repos().Products.Create(context.Background(), &entity.Product{ID: "P2", SKU: "SKU-P1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestProductRepo_UpdateNoTocaCantidad(t *testing.T) {
	s := NewStore()
	seedProduct(t, s, "P1", 7, 3)
	ctx := context.Background()

	err := s.Repos().Products.Update(ctx, &entity.Product{ID: "P1", Name: "Nuevo", PriceCents: 1500, Quantity: 999, SKU: "OTRO"})
	require.NoError(t, err)

	p, _ := s.Repos().Products.GetByID(ctx, "P1")
	assert.Equal(t, "Nuevo", p.Name)
	assert.Equal(t, int64(1500), p.PriceCents)
	assert.Equal(t, int64(7), p.Quantity)
	assert.Equal(t, "SKU-P1", p.SKU)
}

func TestProductRepo_ListFiltraYPagina(t *testing.T) {
	s := NewStore()
	for _, id := range []string{"A", "B", "C"} {
		seedProduct(t, s, id, 1, 0)
	}
	list, total, err := s.Repos().Products.List(context.Background(), repository.ProductFilter{Search: "sku-", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, list, 2)

	list, total, err = s.Repos().Products.List(context.Background(), repository.ProductFilter{Search: "producto b"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "B", list[0].ID)
}

func TestStockAlertRepo_UnaActivaPorProducto(t *testing.T) {
	s := NewStore()
	repo := s.Repos().Alerts
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entity.StockAlert{ID: "a1", ProductID: "P1", Status: entity.AlertStatusActive}))
	err := repo.Create(ctx, &entity.StockAlert{ID: "a2", ProductID: "P1", Status: entity.AlertStatusActive})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	require.NoError(t, repo.Clear(ctx, "a1", 20, time.Now()))
	active, err := repo.GetActiveByProduct(ctx, "P1")
	require.NoError(t, err)
	assert.Nil(t, active)

	require.NoError(t, repo.Create(ctx, &entity.StockAlert{ID: "a3", ProductID: "P1", Status: entity.AlertStatusActive}))
	all, _ := repo.List(ctx, "")
	assert.Len(t, all, 2)
}

func TestKeyedLocks_SerializaMismaClave(t *testing.T) {
	k := newKeyedLocks()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k.lock("prd:P1")
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			k.unlock("prd:P1")
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, k.size())
}

func TestKeyedLocks_ClavesDistintasEnParalelo(t *testing.T) {
	k := newKeyedLocks()
	k.lock("prd:A")
	done := make(chan struct{})
	go func() {
		k.lock("prd:B")
		k.unlock("prd:B")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("una clave distinta no debe esperar")
	}
	k.unlock("prd:A")
}
