package inventory

import (
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// Settings parámetros de negocio configurables.
type Settings struct {
	DefaultMinStock   int64         // mínimo cuando la categoría no tiene uno propio
	TransferSLA       time.Duration // tiempo máximo entre envío y recepción
	ExpiryWarningDays int
}

// Deps dependencias compartidas por los casos de uso del ledger.
type Deps struct {
	Tx         TxRunner
	Products   repository.ProductRepository
	Stores     repository.StoreRepository
	Categories repository.CategoryRepository
	Log        *logger.Logger
	Metrics    MetricsRecorder
	Settings   Settings
	Now        func() time.Time
	Suffix     func() string // sufijo aleatorio del código de barras
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Metrics == nil {
		d.Metrics = nopRecorder{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Suffix == nil {
		d.Suffix = inventory.RandomSuffix
	}
	if d.Settings.TransferSLA <= 0 {
		d.Settings.TransferSLA = 72 * time.Hour
	}
	if d.Settings.ExpiryWarningDays <= 0 {
		d.Settings.ExpiryWarningDays = 30
	}
	return d
}
