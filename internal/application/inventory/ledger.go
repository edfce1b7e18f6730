package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	invdomain "github.com/jhoicas/Ventas-api/internal/domain/inventory"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// MaxLineQuantity cota por producto y reserva; mantiene los montos lejos del desbordamiento.
const MaxLineQuantity int64 = 1_000_000

// ReservationRequest cantidad solicitada de un producto.
type ReservationRequest struct {
	ProductID string
	Quantity  int64
}

// StockLedger único mutador de Product.Quantity. Descuenta todo o nada, bloqueando
// los productos en orden ascendente de id para evitar interbloqueos.
type StockLedger struct {
	txRunner TxRunner
	alerts   *AlertEmitter
	notifier AlertNotifier
	log      *logger.Logger
	now      func() time.Time
}

// NewStockLedger construye el libro de stock. notifier puede ser nil.
func NewStockLedger(txRunner TxRunner, alerts *AlertEmitter, notifier AlertNotifier, log *logger.Logger) *StockLedger {
	if log == nil {
		log = logger.Nop()
	}
	return &StockLedger{
		txRunner: txRunner,
		alerts:   alerts,
		notifier: notifier,
		log:      log.Component("stock_ledger"),
		now:      time.Now,
	}
}

// NormalizeRequests valida la canasta y fusiona ids repetidos conservando el orden de aparición.
func NormalizeRequests(requests []ReservationRequest) ([]ReservationRequest, error) {
	if len(requests) == 0 {
		return nil, domain.NewValidationError("items", "la canasta no puede estar vacía")
	}
	merged := make([]ReservationRequest, 0, len(requests))
	index := make(map[string]int, len(requests))
	for i, r := range requests {
		if r.ProductID == "" {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].product_id", i), "es obligatorio")
		}
		if r.Quantity <= 0 {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "debe ser un entero positivo")
		}
		if r.Quantity > MaxLineQuantity {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].quantity", i), fmt.Sprintf("no puede superar %d", MaxLineQuantity))
		}
		if pos, ok := index[r.ProductID]; ok {
			merged[pos].Quantity += r.Quantity
			if merged[pos].Quantity > MaxLineQuantity {
				return nil, domain.NewValidationError(fmt.Sprintf("items[%d].quantity", i), fmt.Sprintf("la suma para %s supera %d", r.ProductID, MaxLineQuantity))
			}
			continue
		}
		index[r.ProductID] = len(merged)
		merged = append(merged, r)
	}
	return merged, nil
}

// Reserve descuenta atómicamente toda la canasta en su propia transacción.
func (l *StockLedger) Reserve(ctx context.Context, requests []ReservationRequest) (*entity.Reservation, error) {
	var (
		res         *entity.Reservation
		transitions []entity.AlertTransition
	)
	err := l.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		res, transitions, err = l.ReserveInTx(ctx, repos, requests)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.Publish(ctx, transitions)
	return res, nil
}

// ReserveInTx igual que Reserve pero con los repositorios de la transacción del caller.
// Si retorna error el caller debe hacer rollback; las transiciones se publican tras el commit.
func (l *StockLedger) ReserveInTx(ctx context.Context, repos repository.Repos, requests []ReservationRequest) (*entity.Reservation, []entity.AlertTransition, error) {
	lines, err := NormalizeRequests(requests)
	if err != nil {
		return nil, nil, err
	}
	ordered := make([]entity.ReservationLine, len(lines))
	for i, ln := range lines {
		ordered[i] = entity.ReservationLine{ProductID: ln.ProductID, Quantity: ln.Quantity}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ProductID < ordered[j].ProductID })

	ids := make([]string, len(ordered))
	for i, ln := range ordered {
		ids[i] = ln.ProductID
	}
	levels, err := repos.Stock.LockLevels(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	// Fase 1: verificar todo antes de tocar una sola cantidad.
	for _, ln := range ordered {
		if _, ok := levels[ln.ProductID]; !ok {
			return nil, nil, &domain.ProductNotFoundError{ProductID: ln.ProductID}
		}
	}
	for _, ln := range ordered {
		if lvl := levels[ln.ProductID]; lvl.Quantity < ln.Quantity {
			return nil, nil, &domain.InsufficientStockError{ProductID: ln.ProductID, Requested: ln.Quantity, Available: lvl.Quantity}
		}
	}

	// Fase 2: descontar. La actualización condicional es una segunda barrera contra la sobreventa.
	after := make([]entity.StockLevel, 0, len(ordered))
	for _, ln := range ordered {
		lvl, err := repos.Stock.AddQuantity(ctx, ln.ProductID, -ln.Quantity)
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientStock) {
				return nil, nil, &domain.InsufficientStockError{ProductID: ln.ProductID, Requested: ln.Quantity, Available: levels[ln.ProductID].Quantity}
			}
			return nil, nil, err
		}
		after = append(after, lvl)
	}

	res := &entity.Reservation{
		ID:        uuid.New().String(),
		Lines:     ordered,
		Status:    entity.ReservationStatusActive,
		CreatedAt: l.now(),
	}
	if err := repos.Reservations.Create(ctx, res); err != nil {
		return nil, nil, err
	}

	transitions, err := l.alerts.Evaluate(ctx, repos.Alerts, after)
	if err != nil {
		return nil, nil, err
	}
	return res, transitions, nil
}

// Release devuelve al stock las cantidades exactas de la reserva. Liberar una reserva
// ya liberada no hace nada.
func (l *StockLedger) Release(ctx context.Context, reservationID string) (*entity.Reservation, error) {
	var (
		res         *entity.Reservation
		transitions []entity.AlertTransition
	)
	err := l.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		res, transitions, err = l.ReleaseInTx(ctx, repos, reservationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.Publish(ctx, transitions)
	return res, nil
}

// ReleaseInTx variante de Release atada a la transacción del caller (cancelación de factura).
func (l *StockLedger) ReleaseInTx(ctx context.Context, repos repository.Repos, reservationID string) (*entity.Reservation, []entity.AlertTransition, error) {
	if reservationID == "" {
		return nil, nil, domain.NewValidationError("reservation_id", "es obligatorio")
	}
	res, err := repos.Reservations.GetForUpdate(ctx, reservationID)
	if err != nil {
		return nil, nil, err
	}
	if res == nil {
		return nil, nil, fmt.Errorf("reserva %s: %w", reservationID, domain.ErrNotFound)
	}
	if res.IsReleased() {
		return res, nil, nil
	}

	ids := make([]string, len(res.Lines))
	for i, ln := range res.Lines {
		ids[i] = ln.ProductID
	}
	sort.Strings(ids)
	if _, err := repos.Stock.LockLevels(ctx, ids); err != nil {
		return nil, nil, err
	}
	qty := make(map[string]int64, len(res.Lines))
	for _, ln := range res.Lines {
		qty[ln.ProductID] += ln.Quantity
	}

	after := make([]entity.StockLevel, 0, len(ids))
	for _, id := range ids {
		lvl, err := repos.Stock.AddQuantity(ctx, id, qty[id])
		if err != nil {
			return nil, nil, fmt.Errorf("liberar %s: %w", id, err)
		}
		after = append(after, lvl)
	}

	now := l.now()
	if err := repos.Reservations.MarkReleased(ctx, res.ID, now); err != nil {
		return nil, nil, err
	}
	res.Status = entity.ReservationStatusReleased
	res.ReleasedAt = &now

	transitions, err := l.alerts.Evaluate(ctx, repos.Alerts, after)
	if err != nil {
		return nil, nil, err
	}
	return res, transitions, nil
}

// Receive repone stock de un producto (entrada de mercancía). Si unitCost no es nil, el costo
// del producto pasa a ser el promedio ponderado entre el stock existente y la entrada.
func (l *StockLedger) Receive(ctx context.Context, productID string, quantity int64, unitCost *int64) (entity.StockLevel, error) {
	if productID == "" {
		return entity.StockLevel{}, domain.NewValidationError("product_id", "es obligatorio")
	}
	if quantity <= 0 || quantity > MaxLineQuantity {
		return entity.StockLevel{}, domain.NewValidationError("quantity", fmt.Sprintf("debe estar entre 1 y %d", MaxLineQuantity))
	}
	if unitCost != nil && *unitCost < 0 {
		return entity.StockLevel{}, domain.NewValidationError("unit_cost", "no puede ser negativo")
	}
	var (
		level       entity.StockLevel
		transitions []entity.AlertTransition
	)
	err := l.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		levels, err := repos.Stock.LockLevels(ctx, []string{productID})
		if err != nil {
			return err
		}
		before, ok := levels[productID]
		if !ok {
			return &domain.ProductNotFoundError{ProductID: productID}
		}
		if unitCost != nil {
			if err := l.reprice(ctx, repos, before, quantity, *unitCost); err != nil {
				return err
			}
		}
		level, err = repos.Stock.AddQuantity(ctx, productID, quantity)
		if err != nil {
			return err
		}
		transitions, err = l.alerts.Evaluate(ctx, repos.Alerts, []entity.StockLevel{level})
		return err
	})
	if err != nil {
		return entity.StockLevel{}, err
	}
	l.Publish(ctx, transitions)
	return level, nil
}

// reprice recalcula el costo con la fila ya bloqueada por LockLevels.
func (l *StockLedger) reprice(ctx context.Context, repos repository.Repos, before entity.StockLevel, quantity, unitCost int64) error {
	p, err := repos.Products.GetByID(ctx, before.ProductID)
	if err != nil {
		return err
	}
	if p == nil {
		return &domain.ProductNotFoundError{ProductID: before.ProductID}
	}
	p.CostCents = invdomain.WeightedAverageCost(before.Quantity, p.CostCents, quantity, unitCost)
	p.UpdatedAt = l.now()
	return repos.Products.Update(ctx, p)
}

// Publish entrega las transiciones al notificador. Un fallo aquí no deshace la operación ya confirmada.
func (l *StockLedger) Publish(ctx context.Context, transitions []entity.AlertTransition) {
	if len(transitions) == 0 || l.notifier == nil {
		return
	}
	if err := l.notifier.Notify(ctx, transitions); err != nil {
		l.log.Warn().Err(err).Int("transiciones", len(transitions)).Msg("no se pudieron publicar las alertas de stock")
	}
}
