package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	storeA   = "store-a"
	storeB   = "store-b"
	milk     = "prod-leche"
	bread    = "prod-pan"
	bag      = "prod-bolsa"
	actor    = "operador-1"
	suffixOK = "ABC123"
)

var testNow = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

// spyMetrics registra las señales emitidas por los casos de uso.
type spyMetrics struct {
	mu         sync.Mutex
	movements  []entity.MovementKind
	rejected   []string
	statuses   []entity.TransferStatus
	mismatches []int64
}

func (s *spyMetrics) MovementCommitted(kind entity.MovementKind, _ int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movements = append(s.movements, kind)
}

func (s *spyMetrics) OperationRejected(op string, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected = append(s.rejected, op)
}

func (s *spyMetrics) TransferStatusChanged(st entity.TransferStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, st)
}

func (s *spyMetrics) MismatchDetected(q int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mismatches = append(s.mismatches, q)
}

// fakeRenderer captura las etiquetas y manifiestos en vez de generar PDF.
type fakeRenderer struct {
	labels    []inventory.Label
	manifests []inventory.Manifest
}

func (f *fakeRenderer) RenderLabels(_ context.Context, labels []inventory.Label) ([]byte, error) {
	f.labels = append(f.labels, labels...)
	return []byte("%PDF-labels"), nil
}

func (f *fakeRenderer) RenderManifest(_ context.Context, m inventory.Manifest) ([]byte, error) {
	f.manifests = append(f.manifests, m)
	return []byte("%PDF-manifest"), nil
}

type fixture struct {
	now          time.Time
	metrics      *spyMetrics
	renderer     *fakeRenderer
	ledger       *inventory.LedgerUseCase
	reservations *inventory.ReservationUseCase
	acceptance   *inventory.AcceptanceUseCase
	transfers    *inventory.TransferUseCase
	counts       *inventory.StockCountUseCase
	alerts       *inventory.AlertUseCase
	audit        *inventory.AuditUseCase
}

// newFixture arma los casos de uso sobre el almacenamiento en memoria con dos tiendas y dos productos.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: testNow, metrics: &spyMetrics{}, renderer: &fakeRenderer{}}
	deps := inventory.Deps{
		Tx: memory.NewStore(),
		Products: memory.NewCatalog(
			entity.Product{ID: milk, SKU: "LECHE-1L", Name: "Leche entera 1L", CategoryCode: "LAC"},
			entity.Product{ID: bread, SKU: "PAN-TAJ", Name: "Pan tajado", CategoryCode: "PAN"},
			entity.Product{ID: bag, SKU: "BOLSA", Name: "Bolsa reutilizable", CategoryCode: "EMP"},
		),
		Stores: memory.NewStoreDirectory(
			entity.Store{ID: storeA, Code: "T01", Name: "Centro"},
			entity.Store{ID: storeB, Code: "T02", Name: "Norte"},
		),
		Categories: memory.NewCategoryTable(
			entity.Category{Code: "LAC", Name: "Lácteos", MinStock: 10},
			entity.Category{Code: "EMP", Name: "Empaques", MinStock: 0},
		),
		Metrics:  f.metrics,
		Settings: inventory.Settings{DefaultMinStock: 5, TransferSLA: 48 * time.Hour, ExpiryWarningDays: 30},
		Now:      func() time.Time { return f.now },
		Suffix:   func() string { return suffixOK },
	}
	f.ledger = inventory.NewLedgerUseCase(deps)
	f.reservations = inventory.NewReservationUseCase(deps)
	f.acceptance = inventory.NewAcceptanceUseCase(deps, f.renderer)
	f.transfers = inventory.NewTransferUseCase(deps, f.renderer)
	f.counts = inventory.NewStockCountUseCase(deps)
	f.alerts = inventory.NewAlertUseCase(deps)
	f.audit = inventory.NewAuditUseCase(deps)
	return f
}

// addStock compra qty unidades del producto en la tienda (purchase-in).
func (f *fixture) addStock(t *testing.T, product, store string, qty int64, batch string, expiry *time.Time) *entity.StockRecord {
	t.Helper()
	rec, err := f.ledger.AddStock(context.Background(), inventory.AddStockInput{
		ProductID:  product,
		StoreID:    store,
		Quantity:   qty,
		Kind:       entity.MovementPurchaseIn,
		CauseType:  entity.CausePurchase,
		CauseID:    "oc-1",
		Actor:      actor,
		BatchCode:  batch,
		ExpiryDate: expiry,
	})
	require.NoError(t, err, "debe registrarse la entrada de stock")
	return rec
}

// record relee un registro del ledger.
func (f *fixture) record(t *testing.T, id string) *entity.StockRecord {
	t.Helper()
	rec, err := f.ledger.GetRecord(context.Background(), id)
	require.NoError(t, err)
	return rec
}

// requireConsistent verifica 0 <= reserved <= quantity y que el ledger cuadra con el registro.
func (f *fixture) requireConsistent(t *testing.T, id string) {
	t.Helper()
	rec := f.record(t, id)
	require.GreaterOrEqual(t, rec.Reserved, int64(0))
	require.LessOrEqual(t, rec.Reserved, rec.Quantity)
	check, err := f.audit.VerifyRecord(context.Background(), id)
	require.NoError(t, err)
	require.True(t, check.Consistent, "Σ deltas debe igualar la cantidad del registro %s", id)
}

func datePtr(t time.Time) *time.Time { return &t }
