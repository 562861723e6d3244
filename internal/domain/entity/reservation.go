package entity

import "time"

// ReservationStatus estado de una reserva.
type ReservationStatus string

const (
	ReservationActive   ReservationStatus = "active"
	ReservationReleased ReservationStatus = "released"
)

// Reservation handle devuelto por ReserveStock; la liberación se hace contra este registro exacto.
type Reservation struct {
	ID            string
	StockRecordID string
	ProductID     string
	StoreID       string
	OrderRef      string
	Quantity      int64
	Released      int64
	Status        ReservationStatus
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Remaining cantidad aún reservada.
func (r *Reservation) Remaining() int64 {
	return r.Quantity - r.Released
}
