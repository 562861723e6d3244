package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// draftTransfer crea un traslado A→B con una línea por producto y las etiquetas ya retiradas.
func (f *fixture) draftTransfer(t *testing.T, requiresApproval bool, items map[string]int64) *entity.Transfer {
	t.Helper()
	ctx := context.Background()
	tr, err := f.transfers.CreateTransfer(ctx, inventory.CreateTransferInput{
		FromStoreID: storeA, ToStoreID: storeB, RequiresApproval: requiresApproval, Actor: actor,
	})
	require.NoError(t, err)
	for _, product := range []string{milk, bread} {
		qty, ok := items[product]
		if !ok {
			continue
		}
		it, err := f.transfers.AddItem(ctx, inventory.AddItemInput{TransferID: tr.ID, ProductID: product, Quantity: qty})
		require.NoError(t, err)
		require.NoError(t, f.transfers.MarkBarcodeRemoved(ctx, tr.ID, it.ID))
	}
	out, err := f.transfers.GetTransfer(ctx, tr.ID)
	require.NoError(t, err)
	return out
}

func destRecord(t *testing.T, f *fixture, product string) *entity.StockRecord {
	t.Helper()
	list, err := f.ledger.FindRecords(context.Background(), product, storeB)
	require.NoError(t, err)
	require.Len(t, list, 1)
	return list[0]
}

func TestTraslado_FlujoCompleto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	src := f.addStock(t, milk, storeA, 10, "", nil)
	tr := f.draftTransfer(t, false, map[string]int64{milk: 10})
	assert.Equal(t, "TRF-20250310-ABC123", tr.Number)

	sent, err := f.transfers.SendTransfer(ctx, tr.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferSent, sent.Status)
	assert.Equal(t, int64(0), f.record(t, src.ID).Quantity)

	res, err := f.transfers.ReceiveTransfer(ctx, inventory.ReceiveInput{
		TransferID: tr.ID, Actor: "receptor", Received: map[string]int64{tr.Items[0].ID: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferReceived, res.Transfer.Status)
	assert.Empty(t, res.Mismatches)
	assert.False(t, res.Transfer.Items[0].HasMismatch)

	dst := destRecord(t, f, milk)
	assert.Equal(t, int64(10), dst.Quantity)
	assert.Equal(t, entity.AcceptancePending, dst.Status)
	f.requireConsistent(t, src.ID)
	f.requireConsistent(t, dst.ID)
}

func TestTraslado_RecepcionConDiscrepancia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addStock(t, milk, storeA, 10, "", nil)
	tr := f.draftTransfer(t, false, map[string]int64{milk: 10})
	_, err := f.transfers.SendTransfer(ctx, tr.ID, actor)
	require.NoError(t, err)
	_, err = f.transfers.DispatchTransfer(ctx, tr.ID, actor)
	require.NoError(t, err)

	res, err := f.transfers.ReceiveTransfer(ctx, inventory.ReceiveInput{
		TransferID: tr.ID, Actor: "receptor", Received: map[string]int64{tr.Items[0].ID: 7},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferPartiallyReceived, res.Transfer.Status)
	require.Len(t, res.Mismatches, 1)
	assert.Equal(t, int64(3), res.Mismatches[0].Quantity)
	item := res.Transfer.Items[0]
	assert.True(t, item.HasMismatch)
	assert.Equal(t, int64(3), item.MismatchQuantity)
	assert.Equal(t, int64(7), destRecord(t, f, milk).Quantity)
	assert.Equal(t, []int64{3}, f.metrics.mismatches)

	resolved, err := f.transfers.ResolveItemMismatch(ctx, inventory.ResolveItemInput{
		TransferID: tr.ID, ItemID: item.ID, Actor: "supervisor", Notes: "merma en ruta", EscalationID: "esc-1",
	})
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.Equal(t, "esc-1", resolved.EscalationID)

	_, err = f.transfers.ResolveItemMismatch(ctx, inventory.ResolveItemInput{TransferID: tr.ID, ItemID: item.ID, Actor: "supervisor"})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestTraslado_LineaAusenteCuentaComoCero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addStock(t, milk, storeA, 5, "", nil)
	f.addStock(t, bread, storeA, 5, "", nil)
	tr := f.draftTransfer(t, false, map[string]int64{milk: 5, bread: 5})
	_, err := f.transfers.SendTransfer(ctx, tr.ID, actor)
	require.NoError(t, err)

	res, err := f.transfers.ReceiveTransfer(ctx, inventory.ReceiveInput{
		TransferID: tr.ID, Actor: "receptor", Received: map[string]int64{tr.Items[0].ID: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferPartiallyReceived, res.Transfer.Status)
	require.Len(t, res.Mismatches, 1)
	assert.Equal(t, bread, res.Mismatches[0].ProductID)

	list, err := f.ledger.FindRecords(ctx, bread, storeB)
	require.NoError(t, err)
	assert.Empty(t, list, "cero recibido no crea registro en destino")
}

func TestTraslado_EnvioAtomico(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	milkRec := f.addStock(t, milk, storeA, 10, "", nil)
	f.addStock(t, bread, storeA, 2, "", nil)
	tr := f.draftTransfer(t, false, map[string]int64{milk: 5, bread: 2})

	// El pan se vende antes del envío
	_, err := f.ledger.ReduceStock(ctx, inventory.ReduceStockInput{
		ProductID: bread, StoreID: storeA, Quantity: 2,
		Kind: entity.MovementSaleOut, CauseType: entity.CauseOrder,
	})
	require.NoError(t, err)

	_, err = f.transfers.SendTransfer(ctx, tr.ID, actor)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(10), f.record(t, milkRec.ID).Quantity, "la primera línea no debe descontarse")

	got, err := f.transfers.GetTransfer(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferDraft, got.Status)
	f.requireConsistent(t, milkRec.ID)
}

func TestTraslado_EnvioRepartidoEntreLotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	soon := f.addStock(t, milk, storeA, 3, "L1", datePtr(testNow.AddDate(0, 0, 3)))
	late := f.addStock(t, milk, storeA, 5, "L2", datePtr(testNow.AddDate(0, 1, 0)))
	tr := f.draftTransfer(t, false, map[string]int64{milk: 6})

	_, err := f.transfers.SendTransfer(ctx, tr.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.record(t, soon.ID).Quantity)
	assert.Equal(t, int64(2), f.record(t, late.ID).Quantity)
}

func TestTraslado_EtiquetaSinRetirarImpideEnvio(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addStock(t, milk, storeA, 10, "", nil)
	tr, err := f.transfers.CreateTransfer(ctx, inventory.CreateTransferInput{FromStoreID: storeA, ToStoreID: storeB, Actor: actor})
	require.NoError(t, err)
	_, err = f.transfers.AddItem(ctx, inventory.AddItemInput{TransferID: tr.ID, ProductID: milk, Quantity: 4})
	require.NoError(t, err)

	_, err = f.transfers.SendTransfer(ctx, tr.ID, actor)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestTraslado_FlujoDeAprobacion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addStock(t, milk, storeA, 10, "", nil)
	tr := f.draftTransfer(t, true, map[string]int64{milk: 4})

	_, err := f.transfers.SendTransfer(ctx, tr.ID, actor)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "requiere aprobación antes de enviar")

	got, err := f.transfers.SubmitForApproval(ctx, tr.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferPendingApproval, got.Status)
	assert.Equal(t, actor, got.SubmittedBy)
	require.NotNil(t, got.SubmittedAt)
	assert.True(t, got.SubmittedAt.Equal(testNow))

	got, err = f.transfers.ApproveTransfer(ctx, tr.ID, "gerente")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferApproved, got.Status)
	assert.Equal(t, "gerente", got.ApprovedBy)

	got, err = f.transfers.SendTransfer(ctx, tr.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferSent, got.Status)

	_, err = f.transfers.CancelTransfer(ctx, tr.ID, actor)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "un traslado enviado no se cancela")
}

func TestTraslado_RechazoYCancelacion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addStock(t, milk, storeA, 10, "", nil)

	rejected := f.draftTransfer(t, true, map[string]int64{milk: 1})
	_, err := f.transfers.SubmitForApproval(ctx, rejected.ID, actor)
	require.NoError(t, err)
	got, err := f.transfers.RejectTransfer(ctx, rejected.ID, "gerente", "sin transporte")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCancelled, got.Status)
	assert.Equal(t, "sin transporte", got.Notes)

	plain := f.draftTransfer(t, false, map[string]int64{milk: 1})
	_, err = f.transfers.SubmitForApproval(ctx, plain.ID, actor)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "sin aprobación requerida no hay submit")
	got, err = f.transfers.CancelTransfer(ctx, plain.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCancelled, got.Status)

	_, err = f.transfers.AddItem(ctx, inventory.AddItemInput{TransferID: plain.ID, ProductID: milk, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidState, "solo se agregan líneas en borrador")
}

func TestCreateTransfer_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.transfers.CreateTransfer(ctx, inventory.CreateTransferInput{FromStoreID: storeA, ToStoreID: storeA, Actor: actor})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.transfers.CreateTransfer(ctx, inventory.CreateTransferInput{FromStoreID: storeA, ToStoreID: "store-x", Actor: actor})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddItem_CuentaLoYaListado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addStock(t, milk, storeA, 10, "", nil)
	tr, err := f.transfers.CreateTransfer(ctx, inventory.CreateTransferInput{FromStoreID: storeA, ToStoreID: storeB, Actor: actor})
	require.NoError(t, err)

	_, err = f.transfers.AddItem(ctx, inventory.AddItemInput{TransferID: tr.ID, ProductID: milk, Quantity: 7})
	require.NoError(t, err)
	_, err = f.transfers.AddItem(ctx, inventory.AddItemInput{TransferID: tr.ID, ProductID: milk, Quantity: 4})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	_, err = f.transfers.AddItem(ctx, inventory.AddItemInput{TransferID: tr.ID, ProductID: bread, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestAddItem_LotesDistintosNoSeSuman(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addStock(t, milk, storeA, 5, "L1", datePtr(testNow.AddDate(0, 0, 10)))
	f.addStock(t, milk, storeA, 5, "L2", datePtr(testNow.AddDate(0, 0, 20)))
	tr, err := f.transfers.CreateTransfer(ctx, inventory.CreateTransferInput{FromStoreID: storeA, ToStoreID: storeB, Actor: actor})
	require.NoError(t, err)

	_, err = f.transfers.AddItem(ctx, inventory.AddItemInput{TransferID: tr.ID, ProductID: milk, Quantity: 5, BatchCode: "L1"})
	require.NoError(t, err)
	_, err = f.transfers.AddItem(ctx, inventory.AddItemInput{TransferID: tr.ID, ProductID: milk, Quantity: 5, BatchCode: "L2"})
	require.NoError(t, err, "cada lote tiene 5 disponibles")

	_, err = f.transfers.AddItem(ctx, inventory.AddItemInput{TransferID: tr.ID, ProductID: milk, Quantity: 1, BatchCode: "L1"})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "L1 ya está comprometido completo")
	_, err = f.transfers.AddItem(ctx, inventory.AddItemInput{TransferID: tr.ID, ProductID: milk, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "sin lote cuenta todas las líneas del producto")

	got, err := f.transfers.GetTransfer(ctx, tr.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
}

func TestReceiveTransfer_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addStock(t, milk, storeA, 10, "", nil)
	tr := f.draftTransfer(t, false, map[string]int64{milk: 2})

	_, err := f.transfers.ReceiveTransfer(ctx, inventory.ReceiveInput{TransferID: tr.ID, Actor: actor})
	assert.ErrorIs(t, err, domain.ErrInvalidState, "un borrador no se recibe")

	_, err = f.transfers.SendTransfer(ctx, tr.ID, actor)
	require.NoError(t, err)
	_, err = f.transfers.ReceiveTransfer(ctx, inventory.ReceiveInput{TransferID: tr.ID, Actor: actor, Received: map[string]int64{"otra": 1}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.transfers.ReceiveTransfer(ctx, inventory.ReceiveInput{TransferID: tr.ID, Actor: actor, Received: map[string]int64{tr.Items[0].ID: -1}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.transfers.ReceiveTransfer(ctx, inventory.ReceiveInput{TransferID: tr.ID, Actor: actor, Received: map[string]int64{tr.Items[0].ID: 2}})
	require.NoError(t, err)
	_, err = f.transfers.ReceiveTransfer(ctx, inventory.ReceiveInput{TransferID: tr.ID, Actor: actor, Received: map[string]int64{tr.Items[0].ID: 2}})
	assert.ErrorIs(t, err, domain.ErrInvalidState, "no se recibe dos veces")
}

func TestReceiveTransfer_CopiaVencimientoDelLote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	expiry := testNow.AddDate(0, 0, 20)
	f.addStock(t, milk, storeA, 5, "L9", &expiry)
	tr, err := f.transfers.CreateTransfer(ctx, inventory.CreateTransferInput{FromStoreID: storeA, ToStoreID: storeB, Actor: actor})
	require.NoError(t, err)
	it, err := f.transfers.AddItem(ctx, inventory.AddItemInput{TransferID: tr.ID, ProductID: milk, Quantity: 5, BatchCode: "L9"})
	require.NoError(t, err)
	require.NoError(t, f.transfers.MarkBarcodeRemoved(ctx, tr.ID, it.ID))
	_, err = f.transfers.SendTransfer(ctx, tr.ID, actor)
	require.NoError(t, err)
	_, err = f.transfers.ReceiveTransfer(ctx, inventory.ReceiveInput{TransferID: tr.ID, Actor: actor, Received: map[string]int64{it.ID: 5}})
	require.NoError(t, err)

	dst := destRecord(t, f, milk)
	assert.Equal(t, "L9", dst.Key.BatchCode)
	require.NotNil(t, dst.ExpiryDate)
	assert.True(t, dst.ExpiryDate.Equal(expiry))
}

func TestOverdueTransfers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addStock(t, milk, storeA, 10, "", nil)
	tr := f.draftTransfer(t, false, map[string]int64{milk: 2})
	_, err := f.transfers.SendTransfer(ctx, tr.ID, actor)
	require.NoError(t, err)

	within, err := f.transfers.OverdueTransfers(ctx, testNow.Add(47*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, within)

	late, err := f.transfers.OverdueTransfers(ctx, testNow.Add(49*time.Hour))
	require.NoError(t, err)
	require.Len(t, late, 1)
	assert.Equal(t, tr.ID, late[0].ID)

	f.now = testNow.Add(50 * time.Hour)
	alerts, err := f.alerts.OverdueTransferAlerts(ctx, f.transfers)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, 2*time.Hour, alerts[0].Overdue)
}

func TestPrintManifest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addStock(t, milk, storeA, 10, "", nil)
	tr := f.draftTransfer(t, false, map[string]int64{milk: 3})

	doc, err := f.transfers.PrintManifest(ctx, tr.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, doc)
	require.Len(t, f.renderer.manifests, 1)
	m := f.renderer.manifests[0]
	assert.Equal(t, "T01 Centro", m.FromStore)
	require.Len(t, m.Lines, 1)
	assert.Equal(t, "LECHE-1L", m.Lines[0].SKU)
	assert.Equal(t, int64(3), m.Lines[0].QuantitySent)
}

func TestReceiveTransfer_RegistroAceptadoVuelveAPendiente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dst := f.addStock(t, milk, storeB, 1, "", nil)
	_, err := f.acceptance.AcceptStock(ctx, inventory.AcceptInput{RecordID: dst.ID, Actor: actor, LocationCode: "b-1"})
	require.NoError(t, err)
	require.NoError(t, f.acceptance.MarkBarcodePrinted(ctx, dst.ID))

	f.addStock(t, milk, storeA, 10, "", nil)
	tr := f.draftTransfer(t, false, map[string]int64{milk: 10})
	_, err = f.transfers.SendTransfer(ctx, tr.ID, actor)
	require.NoError(t, err)
	_, err = f.transfers.ReceiveTransfer(ctx, inventory.ReceiveInput{
		TransferID: tr.ID, Actor: "receptor", Received: map[string]int64{tr.Items[0].ID: 10},
	})
	require.NoError(t, err)

	got := f.record(t, dst.ID)
	assert.Equal(t, int64(11), got.Quantity)
	assert.Equal(t, entity.AcceptancePending, got.Status, "lo recibido exige una nueva aceptación")
	assert.Empty(t, got.Barcode)
	assert.False(t, got.BarcodePrinted)
	assert.Nil(t, got.BarcodePrintedAt)

	barcode, err := f.acceptance.AcceptStock(ctx, inventory.AcceptInput{RecordID: dst.ID, Actor: "receptor", LocationCode: "b-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, barcode)
	f.requireConsistent(t, dst.ID)
}

func TestReceiveTransfer_SinLoteLlevaVencimientoYCosto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	soon := testNow.AddDate(0, 0, 3)
	for _, in := range []struct {
		batch  string
		qty    int64
		expiry time.Time
		cost   int64
	}{
		{"L1", 3, soon, 1000},
		{"L2", 5, testNow.AddDate(0, 1, 0), 2000},
	} {
		cost := decimal.NewFromInt(in.cost)
		_, err := f.ledger.AddStock(ctx, inventory.AddStockInput{
			ProductID: milk, StoreID: storeA, Quantity: in.qty, Kind: entity.MovementPurchaseIn,
			CauseType: entity.CausePurchase, CauseID: "oc-2", Actor: actor,
			BatchCode: in.batch, ExpiryDate: datePtr(in.expiry), UnitCost: &cost,
		})
		require.NoError(t, err)
	}
	tr := f.draftTransfer(t, false, map[string]int64{milk: 6})

	sent, err := f.transfers.SendTransfer(ctx, tr.ID, actor)
	require.NoError(t, err)
	item := sent.Items[0]
	require.NotNil(t, item.ExpiryDate)
	assert.True(t, item.ExpiryDate.Equal(soon), "vencimiento más próximo de lo descontado")
	assert.True(t, item.UnitCost.Equal(decimal.NewFromInt(1500)), "3×1000 + 3×2000 sobre 6, obtenido %s", item.UnitCost)

	_, err = f.transfers.ReceiveTransfer(ctx, inventory.ReceiveInput{
		TransferID: tr.ID, Actor: "receptor", Received: map[string]int64{item.ID: 6},
	})
	require.NoError(t, err)

	dst := destRecord(t, f, milk)
	assert.Equal(t, entity.NewStockKey(milk, storeB, "").BatchCode, dst.Key.BatchCode)
	require.NotNil(t, dst.ExpiryDate)
	assert.True(t, dst.ExpiryDate.Equal(soon))
	assert.True(t, dst.AvgCost.Equal(decimal.NewFromInt(1500)), "costo promedio en destino %s", dst.AvgCost)
	f.requireConsistent(t, dst.ID)
}
