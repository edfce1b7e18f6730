package inventory

import (
	"context"
	"errors"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// LogNotifier registra cada transición de alerta en el log estructurado.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier construye el notificador.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log.Component("stock_alerts")}
}

func (n *LogNotifier) Notify(_ context.Context, transitions []entity.AlertTransition) error {
	for _, t := range transitions {
		ev := n.log.Info()
		if t.Type == entity.AlertRaised {
			ev = n.log.Warn()
		}
		ev.Str("transicion", t.Type).
			Str("product_id", t.Alert.ProductID).
			Int64("cantidad", t.Alert.CurrentQuantity).
			Int64("umbral", t.Alert.Threshold).
			Msg("alerta de stock bajo")
	}
	return nil
}

// MultiNotifier reparte las transiciones a varios notificadores y junta los errores.
type MultiNotifier []AlertNotifier

func (m MultiNotifier) Notify(ctx context.Context, transitions []entity.AlertTransition) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, transitions); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
