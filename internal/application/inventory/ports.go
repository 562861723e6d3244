package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// Repos repositorios atados a una misma transacción.
type Repos struct {
	Stock        repository.StockRecordRepository
	Movements    repository.MovementRepository
	Reservations repository.ReservationRepository
	Transfers    repository.TransferRepository
	Counts       repository.StockCountRepository
	Escalations  repository.EscalationRepository
}

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Commit si fn devuelve nil, Rollback en cualquier otro caso: garantiza atomicidad del ledger.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repos) error) error
}

// MetricsRecorder recibe señales de negocio del ledger (implementado con Prometheus en infraestructura).
type MetricsRecorder interface {
	MovementCommitted(kind entity.MovementKind, delta int64)
	OperationRejected(operation string, err error)
	TransferStatusChanged(status entity.TransferStatus)
	MismatchDetected(quantity int64)
}

// Label datos de una etiqueta de código de barras para imprimir.
type Label struct {
	Barcode      string
	SKU          string
	ProductName  string
	StoreCode    string
	LocationCode string
	BatchCode    string
	ExpiryDate   *time.Time
}

// LabelRenderer genera el documento imprimible de etiquetas (PDF en infraestructura).
type LabelRenderer interface {
	RenderLabels(ctx context.Context, labels []Label) ([]byte, error)
}

type nopRecorder struct{}

func (nopRecorder) MovementCommitted(entity.MovementKind, int64) {}
func (nopRecorder) OperationRejected(string, error)              {}
func (nopRecorder) TransferStatusChanged(entity.TransferStatus)  {}
func (nopRecorder) MismatchDetected(int64)                       {}

// ManifestLine línea del manifiesto de un traslado.
type ManifestLine struct {
	SKU              string
	ProductName      string
	BatchCode        string
	QuantitySent     int64
	QuantityReceived int64
	MismatchQuantity int64
}

// Manifest documento que acompaña la mercancía de un traslado.
type Manifest struct {
	Number     string
	FromStore  string
	ToStore    string
	Status     entity.TransferStatus
	SentAt     *time.Time
	ReceivedAt *time.Time
	Lines      []ManifestLine
}

// ManifestRenderer genera el manifiesto imprimible (PDF en infraestructura).
type ManifestRenderer interface {
	RenderManifest(ctx context.Context, manifest Manifest) ([]byte, error)
}
