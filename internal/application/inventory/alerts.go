package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// AlertEmitter mantiene StockAlert consistente con la cantidad de cada producto.
// Debe ejecutarse en la misma transacción que la mutación, con las filas de producto bloqueadas.
type AlertEmitter struct {
	now func() time.Time
}

// NewAlertEmitter construye el emisor.
func NewAlertEmitter() *AlertEmitter {
	return &AlertEmitter{now: time.Now}
}

// Evaluate aplica la regla a cada nivel:
//   - cantidad <= umbral sin alerta activa: crea una ACTIVE (RAISED)
//   - cantidad > umbral con alerta activa: la pasa a CLEARED
//
// Repetirla con la misma cantidad no produce transiciones.
func (e *AlertEmitter) Evaluate(ctx context.Context, alerts repository.StockAlertRepository, levels []entity.StockLevel) ([]entity.AlertTransition, error) {
	var transitions []entity.AlertTransition
	for _, lvl := range levels {
		active, err := alerts.GetActiveByProduct(ctx, lvl.ProductID)
		if err != nil {
			return nil, err
		}
		switch {
		case lvl.IsLow() && active == nil:
			alert := entity.StockAlert{
				ID:              uuid.New().String(),
				ProductID:       lvl.ProductID,
				CurrentQuantity: lvl.Quantity,
				Threshold:       lvl.Threshold,
				Status:          entity.AlertStatusActive,
				CreatedAt:       e.now(),
			}
			if err := alerts.Create(ctx, &alert); err != nil {
				return nil, err
			}
			transitions = append(transitions, entity.AlertTransition{Type: entity.AlertRaised, Alert: alert})
		case lvl.IsLow():
			if active.CurrentQuantity != lvl.Quantity || active.Threshold != lvl.Threshold {
				if err := alerts.Refresh(ctx, active.ID, lvl.Quantity, lvl.Threshold); err != nil {
					return nil, err
				}
			}
		case active != nil:
			at := e.now()
			if err := alerts.Clear(ctx, active.ID, lvl.Quantity, at); err != nil {
				return nil, err
			}
			cleared := *active
			cleared.Status = entity.AlertStatusCleared
			cleared.CurrentQuantity = lvl.Quantity
			cleared.ClearedAt = &at
			transitions = append(transitions, entity.AlertTransition{Type: entity.AlertCleared, Alert: cleared})
		}
	}
	return transitions, nil
}
