package entity

import "time"

// Estados de alerta de stock bajo.
const (
	AlertStatusActive  = "ACTIVE"
	AlertStatusCleared = "CLEARED"
)

// Tipos de transición de alerta.
const (
	AlertRaised  = "RAISED"
	AlertCleared = "CLEARED"
)

// StockAlert estado derivado: a lo sumo una alerta ACTIVE por producto.
type StockAlert struct {
	ID              string
	ProductID       string
	CurrentQuantity int64
	Threshold       int64
	Status          string
	CreatedAt       time.Time
	ClearedAt       *time.Time
}

// AlertTransition cambio observable de una alerta (se publica después del commit).
type AlertTransition struct {
	Type  string
	Alert StockAlert
}
