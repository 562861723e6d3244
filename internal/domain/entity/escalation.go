package entity

import "time"

// Escalation señal de discrepancia entregada al gestor de tareas externo.
// Este componente no sigue su resolución.
type Escalation struct {
	ID            string
	StockRecordID string
	TransferID    string // opcional, si viene de una recepción
	ExpectedQty   int64
	ActualQty     int64
	Notes         string
	RaisedBy      string
	RaisedAt      time.Time
}
