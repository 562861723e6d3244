package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus estado del traslado entre tiendas.
type TransferStatus string

const (
	TransferDraft             TransferStatus = "draft"
	TransferPendingApproval   TransferStatus = "pending-approval"
	TransferApproved          TransferStatus = "approved"
	TransferSent              TransferStatus = "sent"
	TransferInTransit         TransferStatus = "in-transit"
	TransferReceived          TransferStatus = "received"
	TransferPartiallyReceived TransferStatus = "partially-received"
	TransferCancelled         TransferStatus = "cancelled"
)

// Transfer traslado de mercancía de una tienda origen a una destino.
// Es dueño exclusivo de sus Items.
type Transfer struct {
	ID               string
	Number           string
	FromStoreID      string
	ToStoreID        string
	Items            []TransferItem
	Status           TransferStatus
	RequiresApproval bool
	SubmittedBy      string
	SubmittedAt      *time.Time
	ApprovedBy       string
	ApprovedAt       *time.Time
	SentBy           string
	SentAt           *time.Time
	ReceivedBy       string
	ReceivedAt       *time.Time
	CancelledBy      string
	CancelledAt      *time.Time
	Notes            string
	CreatedBy        string
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TransferItem línea de un traslado.
type TransferItem struct {
	ID               string
	ProductID        string
	BatchCode        string // vacío = cualquier lote del origen
	QuantitySent     int64
	QuantityReceived int64
	BarcodeRemoved   bool
	HasMismatch      bool
	MismatchQuantity int64 // enviado - recibido
	Resolved         bool
	ResolvedBy       string
	ResolvedAt       *time.Time
	ResolutionNotes  string
	EscalationID     string

	// Fijados al enviar según los registros descontados: vencimiento más próximo y costo ponderado.
	ExpiryDate *time.Time
	UnitCost   decimal.Decimal
}

// Item busca una línea por ID.
func (t *Transfer) Item(itemID string) (*TransferItem, bool) {
	for i := range t.Items {
		if t.Items[i].ID == itemID {
			return &t.Items[i], true
		}
	}
	return nil, false
}

// Clone copia profunda (items y fechas).
func (t *Transfer) Clone() *Transfer {
	if t == nil {
		return nil
	}
	c := *t
	c.SubmittedAt = cloneTime(t.SubmittedAt)
	c.ApprovedAt = cloneTime(t.ApprovedAt)
	c.SentAt = cloneTime(t.SentAt)
	c.ReceivedAt = cloneTime(t.ReceivedAt)
	c.CancelledAt = cloneTime(t.CancelledAt)
	c.Items = make([]TransferItem, len(t.Items))
	for i, it := range t.Items {
		it.ResolvedAt = cloneTime(it.ResolvedAt)
		it.ExpiryDate = cloneTime(it.ExpiryDate)
		c.Items[i] = it
	}
	return &c
}
