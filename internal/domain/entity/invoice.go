package entity

import "time"

// InvoiceStatus estado del ciclo de vida de una venta.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"
	InvoiceStatusAccepted  InvoiceStatus = "ACCEPTED"
	InvoiceStatusCompleted InvoiceStatus = "COMPLETED"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// Medios de pago aceptados.
const (
	PaymentMethodCash  = "cash"
	PaymentMethodCard  = "card"
	PaymentMethodCheck = "check"
)

// ValidPaymentMethod indica si el medio de pago es conocido.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodCheck:
		return true
	}
	return false
}

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusPending:  {InvoiceStatusAccepted, InvoiceStatusCancelled},
	InvoiceStatusAccepted: {InvoiceStatusCompleted, InvoiceStatusCancelled},
}

// CanTransitionTo indica si el cambio de estado está permitido. COMPLETED y CANCELLED son terminales.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	for _, allowed := range invoiceTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal COMPLETED o CANCELLED.
func (s InvoiceStatus) IsTerminal() bool {
	return len(invoiceTransitions[s]) == 0
}

// Valid indica si el estado es uno de los cuatro conocidos.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusAccepted, InvoiceStatusCompleted, InvoiceStatusCancelled:
		return true
	}
	return false
}

// Invoice cabecera de una venta con sus líneas. Montos en centavos.
// TotalCents = SubtotalCents + TaxCents; SubtotalCents = suma de los subtotales de línea.
type Invoice struct {
	ID            string
	Number        string // INV-YYYYMMDD-xxxxxxxx
	Items         []LineItem
	SubtotalCents int64
	TaxCents      int64
	TotalCents    int64
	Status        InvoiceStatus
	PaymentMethod string
	CashierID     string
	Notes         string
	ReservationID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UnitsSold suma de cantidades de todas las líneas.
func (inv *Invoice) UnitsSold() int64 {
	var n int64
	for _, it := range inv.Items {
		n += it.Quantity
	}
	return n
}
