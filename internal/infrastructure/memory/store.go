// Package memory implementa los puertos de persistencia en memoria, con la misma semántica
// transaccional que PostgreSQL: bloqueos por clave mantenidos hasta el commit y escrituras
// aplicadas de una sola vez al confirmar.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// Prefijos de clave de bloqueo. Orden global: factura, reserva, productos (ascendente por id).
const (
	lockSKU         = "sku:"
	lockProduct     = "prd:"
	lockInvoice     = "inv:"
	lockReservation = "res:"
)

// Store estado confirmado. Todos los mapas se protegen con mu; los bloqueos de fila con locks.
type Store struct {
	mu           sync.RWMutex
	products     map[string]*entity.Product
	skus         map[string]string // sku -> product id
	reservations map[string]*entity.Reservation
	invoices     map[string]*entity.Invoice
	alerts       map[string]*entity.StockAlert
	activeAlert  map[string]string // product id -> alert id ACTIVE

	locks *keyedLocks
	now   func() time.Time
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		products:     make(map[string]*entity.Product),
		skus:         make(map[string]string),
		reservations: make(map[string]*entity.Reservation),
		invoices:     make(map[string]*entity.Invoice),
		alerts:       make(map[string]*entity.StockAlert),
		activeAlert:  make(map[string]string),
		locks:        newKeyedLocks(),
		now:          time.Now,
	}
}

// Repos repositorios en modo autocommit (cada escritura es su propia transacción).
func (s *Store) Repos() repository.Repos {
	return newRepos(s, nil)
}

// ── bloqueos por clave ──────────────────────────────────────────────────────

type refLock struct {
	mu   sync.Mutex
	refs int
}

// keyedLocks mutex por clave con conteo de referencias; las entradas se liberan al quedar sin uso.
type keyedLocks struct {
	mu sync.Mutex
	m  map[string]*refLock
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{m: make(map[string]*refLock)}
}

func (k *keyedLocks) lock(key string) {
	k.mu.Lock()
	l, ok := k.m[key]
	if !ok {
		l = &refLock{}
		k.m[key] = l
	}
	l.refs++
	k.mu.Unlock()
	l.mu.Lock()
}

func (k *keyedLocks) unlock(key string) {
	k.mu.Lock()
	l := k.m[key]
	l.refs--
	if l.refs == 0 {
		delete(k.m, key)
	}
	k.mu.Unlock()
	l.mu.Unlock()
}

func (k *keyedLocks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.m)
}

// ── transacción ────────────────────────────────────────────────────────────

// tx buffer de escrituras y claves bloqueadas. No es seguro para uso concurrente;
// cada transacción pertenece a una sola goroutine.
type tx struct {
	s    *Store
	held map[string]bool
	keys []string

	products     map[string]*entity.Product
	skus         map[string]string
	reservations map[string]*entity.Reservation
	invoices     map[string]*entity.Invoice
	alerts       map[string]*entity.StockAlert
	activeAlert  map[string]string // "" = sin alerta activa
}

func (s *Store) begin() *tx {
	return &tx{
		s:            s,
		held:         make(map[string]bool),
		products:     make(map[string]*entity.Product),
		skus:         make(map[string]string),
		reservations: make(map[string]*entity.Reservation),
		invoices:     make(map[string]*entity.Invoice),
		alerts:       make(map[string]*entity.StockAlert),
		activeAlert:  make(map[string]string),
	}
}

// lock toma la clave una sola vez por transacción.
func (t *tx) lock(key string) {
	if t.held[key] {
		return
	}
	t.s.locks.lock(key)
	t.held[key] = true
	t.keys = append(t.keys, key)
}

// lockProducts bloquea en orden ascendente de id, sin repetir.
func (t *tx) lockProducts(ids []string) []string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	out := make([]string, 0, len(sorted))
	for _, id := range sorted {
		if len(out) > 0 && out[len(out)-1] == id {
			continue
		}
		t.lock(lockProduct + id)
		out = append(out, id)
	}
	return out
}

// release suelta las claves en orden inverso a la adquisición.
func (t *tx) release() {
	for i := len(t.keys) - 1; i >= 0; i-- {
		t.s.locks.unlock(t.keys[i])
	}
	t.keys = nil
	t.held = map[string]bool{}
}

// commit aplica el buffer al estado confirmado de forma atómica respecto a los lectores.
func (t *tx) commit() {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range t.products {
		s.products[id] = p
	}
	for sku, id := range t.skus {
		s.skus[sku] = id
	}
	for id, r := range t.reservations {
		s.reservations[id] = r
	}
	for id, inv := range t.invoices {
		s.invoices[id] = inv
	}
	for id, a := range t.alerts {
		s.alerts[id] = a
	}
	for productID, alertID := range t.activeAlert {
		if alertID == "" {
			delete(s.activeAlert, productID)
			continue
		}
		s.activeAlert[productID] = alertID
	}
}

// ── lecturas con el buffer encima del estado confirmado ─────────────────────

func (t *tx) product(id string) *entity.Product {
	if p, ok := t.products[id]; ok {
		return copyProduct(p)
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	if p, ok := t.s.products[id]; ok {
		return copyProduct(p)
	}
	return nil
}

func (t *tx) productIDBySKU(sku string) (string, bool) {
	if id, ok := t.skus[sku]; ok {
		return id, true
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	id, ok := t.s.skus[sku]
	return id, ok
}

func (t *tx) reservation(id string) *entity.Reservation {
	if r, ok := t.reservations[id]; ok {
		return copyReservation(r)
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	if r, ok := t.s.reservations[id]; ok {
		return copyReservation(r)
	}
	return nil
}

func (t *tx) invoice(id string) *entity.Invoice {
	if inv, ok := t.invoices[id]; ok {
		return copyInvoice(inv)
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	if inv, ok := t.s.invoices[id]; ok {
		return copyInvoice(inv)
	}
	return nil
}

func (t *tx) alert(id string) *entity.StockAlert {
	if a, ok := t.alerts[id]; ok {
		return copyAlert(a)
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	if a, ok := t.s.alerts[id]; ok {
		return copyAlert(a)
	}
	return nil
}

func (t *tx) activeAlertID(productID string) string {
	if id, ok := t.activeAlert[productID]; ok {
		return id
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return t.s.activeAlert[productID]
}

// ── copias profundas: nada del estado interno sale por referencia ─────────────

func copyProduct(p *entity.Product) *entity.Product {
	c := *p
	return &c
}

func copyReservation(r *entity.Reservation) *entity.Reservation {
	c := *r
	c.Lines = append([]entity.ReservationLine(nil), r.Lines...)
	if r.ReleasedAt != nil {
		at := *r.ReleasedAt
		c.ReleasedAt = &at
	}
	return &c
}

func copyInvoice(inv *entity.Invoice) *entity.Invoice {
	c := *inv
	c.Items = append([]entity.LineItem(nil), inv.Items...)
	return &c
}

func copyAlert(a *entity.StockAlert) *entity.StockAlert {
	c := *a
	if a.ClearedAt != nil {
		at := *a.ClearedAt
		c.ClearedAt = &at
	}
	return &c
}
