package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind tipo de movimiento del ledger.
type MovementKind string

const (
	MovementPurchaseIn      MovementKind = "purchase-in"
	MovementSaleOut         MovementKind = "sale-out"
	MovementTransferOut     MovementKind = "transfer-out"
	MovementTransferIn      MovementKind = "transfer-in"
	MovementReturnIn        MovementKind = "return-in"
	MovementReturnOut       MovementKind = "return-out"
	MovementAdjustmentPlus  MovementKind = "adjustment-plus"
	MovementAdjustmentMinus MovementKind = "adjustment-minus"
	MovementDamaged         MovementKind = "damaged"
	MovementReserved        MovementKind = "reserved"
	MovementUnreserved      MovementKind = "unreserved"
)

// IsInbound indica si el tipo suma cantidad física.
func (k MovementKind) IsInbound() bool {
	switch k {
	case MovementPurchaseIn, MovementTransferIn, MovementReturnIn, MovementAdjustmentPlus:
		return true
	}
	return false
}

// IsOutbound indica si el tipo resta cantidad física.
func (k MovementKind) IsOutbound() bool {
	switch k {
	case MovementSaleOut, MovementTransferOut, MovementReturnOut, MovementAdjustmentMinus, MovementDamaged:
		return true
	}
	return false
}

// Tipos de causa de un movimiento.
const (
	CauseOrder       = "order"
	CauseTransfer    = "transfer"
	CauseCount       = "count"
	CauseReservation = "reservation"
	CausePurchase    = "purchase"
	CauseManual      = "manual"
)

// CauseRef referencia a lo que originó el movimiento (tipo + id).
type CauseRef struct {
	Type string
	ID   string
}

// Movement entrada inmutable del ledger. Se crea una vez por llamada mutante y nunca se actualiza.
// Sequence es monotónico global y fija el orden de auditoría.
type Movement struct {
	ID             string
	Sequence       int64
	StockRecordID  string
	ProductID      string
	StoreID        string
	BatchCode      string
	Kind           MovementKind
	Delta          int64 // con signo; 0 en reserved/unreserved
	QuantityBefore int64
	QuantityAfter  int64
	ReservedBefore int64
	ReservedAfter  int64
	Cause          CauseRef
	Actor          string
	UnitCost       decimal.Decimal
	TotalCost      decimal.Decimal
	CreatedAt      time.Time
}
