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

var _ repository.StockAlertRepository = (*StockAlertRepo)(nil)

// StockAlertRepo alertas en memoria; activeAlert garantiza a lo sumo una ACTIVE por producto.
type StockAlertRepo struct {
	base
}

func (r *StockAlertRepo) GetActiveByProduct(_ context.Context, productID string) (*entity.StockAlert, error) {
	t := r.view()
	id := t.activeAlertID(productID)
	if id == "" {
		return nil, nil
	}
	return t.alert(id), nil
}

func (r *StockAlertRepo) Create(_ context.Context, alert *entity.StockAlert) error {
	return r.write(func(t *tx) error {
		if alert.Status == entity.AlertStatusActive && t.activeAlertID(alert.ProductID) != "" {
			return fmt.Errorf("alerta activa para %s: %w", alert.ProductID, domain.ErrDuplicate)
		}
		t.alerts[alert.ID] = copyAlert(alert)
		if alert.Status == entity.AlertStatusActive {
			t.activeAlert[alert.ProductID] = alert.ID
		}
		return nil
	})
}

func (r *StockAlertRepo) Refresh(_ context.Context, id string, quantity, threshold int64) error {
	return r.write(func(t *tx) error {
		a := t.alert(id)
		if a == nil {
			return fmt.Errorf("alerta %s: %w", id, domain.ErrNotFound)
		}
		a.CurrentQuantity = quantity
		a.Threshold = threshold
		t.alerts[id] = a
		return nil
	})
}

func (r *StockAlertRepo) Clear(_ context.Context, id string, quantity int64, at time.Time) error {
	return r.write(func(t *tx) error {
		a := t.alert(id)
		if a == nil {
			return fmt.Errorf("alerta %s: %w", id, domain.ErrNotFound)
		}
		a.Status = entity.AlertStatusCleared
		a.CurrentQuantity = quantity
		a.ClearedAt = &at
		t.alerts[id] = a
		if t.activeAlertID(a.ProductID) == id {
			t.activeAlert[a.ProductID] = ""
		}
		return nil
	})
}

// List más recientes primero.
func (r *StockAlertRepo) List(_ context.Context, status string) ([]*entity.StockAlert, error) {
	var out []*entity.StockAlert
	for _, a := range r.view().allAlerts() {
		if status != "" && a.Status != status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
