package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/pkg/config"
)

type spyGauges struct {
	overdue int
	alerts  map[string]int
	runs    map[string]int
}

func (g *spyGauges) SetOverdueTransfers(n int) { g.overdue = n }
func (g *spyGauges) SetAlerts(kind, storeID string, n int) {
	g.alerts[kind+"/"+storeID] = n
}
func (g *spyGauges) JobRun(job string, err error) {
	if err == nil {
		g.runs[job]++
	}
}

type env struct {
	now       time.Time
	ledger    *inventory.LedgerUseCase
	transfers *inventory.TransferUseCase
	sched     *Scheduler
	gauges    *spyGauges
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		now:    time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		gauges: &spyGauges{alerts: map[string]int{}, runs: map[string]int{}},
	}
	deps := inventory.Deps{
		Tx:       memory.NewStore(),
		Products: memory.NewCatalog(entity.Product{ID: "p-1", SKU: "LECHE-1L", Name: "Leche", CategoryCode: "LAC"}),
		Stores: memory.NewStoreDirectory(
			entity.Store{ID: "s-1", Code: "T01", Name: "Centro"},
			entity.Store{ID: "s-2", Code: "T02", Name: "Norte"},
		),
		Categories: memory.NewCategoryTable(entity.Category{Code: "LAC", Name: "Lácteos", MinStock: 10}),
		Settings:   inventory.Settings{TransferSLA: 24 * time.Hour, ExpiryWarningDays: 7},
		Now:        func() time.Time { return e.now },
	}
	e.ledger = inventory.NewLedgerUseCase(deps)
	e.transfers = inventory.NewTransferUseCase(deps, nil)
	cfg := config.SchedulerConfig{OverdueSpec: "@every 1h", AlertsSpec: "@daily", Stores: []string{"s-1", "s-2"}}
	e.sched = New(cfg, inventory.NewAlertUseCase(deps), e.transfers, e.gauges, nil)
	return e
}

func TestRunOverdueSweep_DetectaTrasladoFueraDeSLA(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.ledger.AddStock(ctx, inventory.AddStockInput{
		ProductID: "p-1", StoreID: "s-1", Quantity: 20,
		Kind: entity.MovementPurchaseIn, CauseType: entity.CausePurchase, CauseID: "oc-1", Actor: "op",
	})
	require.NoError(t, err)
	tr, err := e.transfers.CreateTransfer(ctx, inventory.CreateTransferInput{FromStoreID: "s-1", ToStoreID: "s-2", Actor: "op"})
	require.NoError(t, err)
	it, err := e.transfers.AddItem(ctx, inventory.AddItemInput{TransferID: tr.ID, ProductID: "p-1", Quantity: 5})
	require.NoError(t, err)
	require.NoError(t, e.transfers.MarkBarcodeRemoved(ctx, tr.ID, it.ID))
	_, err = e.transfers.SendTransfer(ctx, tr.ID, "op")
	require.NoError(t, err)

	n, err := e.sched.RunOverdueSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "recién enviado no está vencido")

	e.now = e.now.Add(25 * time.Hour)
	n, err = e.sched.RunOverdueSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, e.gauges.overdue)
}

func TestRunAlertSweep_PublicaPorTienda(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	exp := e.now.AddDate(0, 0, 3)
	_, err := e.ledger.AddStock(ctx, inventory.AddStockInput{
		ProductID: "p-1", StoreID: "s-1", Quantity: 4, BatchCode: "L-1", ExpiryDate: &exp,
		Kind: entity.MovementPurchaseIn, CauseType: entity.CausePurchase, CauseID: "oc-1", Actor: "op",
	})
	require.NoError(t, err)

	require.NoError(t, e.sched.RunAlertSweep(ctx))
	assert.Equal(t, 1, e.gauges.alerts["low_stock/s-1"], "4 disponibles bajo el mínimo de 10")
	assert.Equal(t, 1, e.gauges.alerts["expiry/s-1"], "vence en 3 días, ventana de 7")
	assert.Equal(t, 0, e.gauges.alerts["expiry/s-2"])
}

func TestStart_ExpresionInvalida(t *testing.T) {
	e := newEnv(t)
	e.sched.cfg.OverdueSpec = "no es cron"
	assert.Error(t, e.sched.Start())
}

func TestJob_CuentaEjecucion(t *testing.T) {
	e := newEnv(t)
	e.sched.job(JobOverdueTransfers, func(ctx context.Context) error {
		_, err := e.sched.RunOverdueSweep(ctx)
		return err
	})()
	assert.Equal(t, 1, e.gauges.runs[JobOverdueTransfers])
}

func TestStartStop(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.sched.Start())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	e.sched.Stop(ctx)
}
