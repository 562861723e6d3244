package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// NoBatch es el código de lote de los registros sin lote.
const NoBatch = "none"

// Estados de aceptación de un registro de stock.
type AcceptanceStatus string

const (
	AcceptancePending   AcceptanceStatus = "pending"
	AcceptanceAccepted  AcceptanceStatus = "accepted"
	AcceptanceEscalated AcceptanceStatus = "escalated"
	AcceptanceResolved  AcceptanceStatus = "resolved"
)

// StockKey identidad compuesta de un registro: producto + tienda + lote.
type StockKey struct {
	ProductID string
	StoreID   string
	BatchCode string
}

// NewStockKey normaliza el lote vacío a NoBatch.
func NewStockKey(productID, storeID, batchCode string) StockKey {
	if batchCode == "" {
		batchCode = NoBatch
	}
	return StockKey{ProductID: productID, StoreID: storeID, BatchCode: batchCode}
}

// StockRecord cantidad física de un producto en una tienda (opcionalmente por lote).
// Nunca se elimina; Quantity y Reserved solo cambian vía operaciones del ledger.
type StockRecord struct {
	ID               string
	Key              StockKey
	Quantity         int64
	Reserved         int64
	LocationCode     string
	Status           AcceptanceStatus
	HandlerID        string // responsable asignado (opcional)
	ExpiryDate       *time.Time
	Barcode          string
	BarcodePrinted   bool
	BarcodePrintedAt *time.Time
	LastCountQty     *int64
	LastCountedAt    *time.Time
	AvgCost          decimal.Decimal // costo promedio ponderado
	Version          int64           // control optimista
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Available cantidad vendible: Quantity - Reserved.
func (r *StockRecord) Available() int64 {
	return r.Quantity - r.Reserved
}

// Clone devuelve una copia profunda (los punteros de fecha se copian por valor).
func (r *StockRecord) Clone() *StockRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.ExpiryDate = cloneTime(r.ExpiryDate)
	c.BarcodePrintedAt = cloneTime(r.BarcodePrintedAt)
	c.LastCountedAt = cloneTime(r.LastCountedAt)
	if r.LastCountQty != nil {
		q := *r.LastCountQty
		c.LastCountQty = &q
	}
	return &c
}

// DaysToExpiry días completos hasta el vencimiento; ok=false si no tiene fecha.
func (r *StockRecord) DaysToExpiry(now time.Time) (days int, ok bool) {
	if r.ExpiryDate == nil {
		return 0, false
	}
	d := truncateDay(*r.ExpiryDate).Sub(truncateDay(now))
	return int(d.Hours() / 24), true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
