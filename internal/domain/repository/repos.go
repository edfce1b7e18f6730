package repository

// Repos repositorios atados a una misma transacción.
type Repos struct {
	Products     ProductRepository
	Stock        StockRepository
	Reservations ReservationRepository
	Invoices     InvoiceRepository
	Alerts       StockAlertRepository
}
