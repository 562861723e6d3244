package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// TransferUseCase flujo de traslados entre tiendas. Las transiciones se validan contra la tabla
// de inventory/transitions.go; el envío descuenta todo o nada en una sola transacción.
type TransferUseCase struct {
	deps     Deps
	manifest ManifestRenderer
}

// NewTransferUseCase construye el caso de uso. manifest puede ser nil.
func NewTransferUseCase(deps Deps, manifest ManifestRenderer) *TransferUseCase {
	return &TransferUseCase{deps: deps.withDefaults(), manifest: manifest}
}

// CreateTransferInput entrada para crear un traslado en borrador.
type CreateTransferInput struct {
	FromStoreID      string `validate:"required"`
	ToStoreID        string `validate:"required,nefield=FromStoreID"`
	RequiresApproval bool
	Actor            string `validate:"required"`
	Notes            string
}

// AddItemInput línea a agregar a un traslado en borrador.
type AddItemInput struct {
	TransferID string `validate:"required"`
	ProductID  string `validate:"required"`
	Quantity   int64  `validate:"gt=0"`
	BatchCode  string
}

// ReceiveInput cantidades recibidas por ID de línea. Una línea ausente cuenta como 0 recibido.
type ReceiveInput struct {
	TransferID string `validate:"required"`
	Actor      string `validate:"required"`
	Received   map[string]int64
}

// ResolveItemInput resolución de una línea con discrepancia.
type ResolveItemInput struct {
	TransferID   string `validate:"required"`
	ItemID       string `validate:"required"`
	Actor        string `validate:"required"`
	Notes        string
	EscalationID string
}

// Mismatch señal de discrepancia en la recepción; no es un error.
type Mismatch struct {
	ItemID    string
	ProductID string
	BatchCode string
	Sent      int64
	Received  int64
	Quantity  int64 // enviado - recibido
}

// ReceiveTransferResult traslado recibido y sus discrepancias.
type ReceiveTransferResult struct {
	Transfer   *entity.Transfer
	Mismatches []Mismatch
}

// CreateTransfer crea un traslado en draft. Origen y destino deben existir y ser distintos.
func (uc *TransferUseCase) CreateTransfer(ctx context.Context, in CreateTransferInput) (*entity.Transfer, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	for _, id := range []string{in.FromStoreID, in.ToStoreID} {
		store, err := uc.deps.Stores.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if store == nil {
			return nil, fmt.Errorf("%w: tienda %s", domain.ErrNotFound, id)
		}
	}
	now := uc.deps.Now()
	t := &entity.Transfer{
		ID:               uuid.New().String(),
		Number:           fmt.Sprintf("TRF-%s-%s", now.Format("20060102"), uc.deps.Suffix()),
		FromStoreID:      in.FromStoreID,
		ToStoreID:        in.ToStoreID,
		Status:           entity.TransferDraft,
		RequiresApproval: in.RequiresApproval,
		Notes:            in.Notes,
		CreatedBy:        in.Actor,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		return r.Transfers.Create(ctx, t)
	}); err != nil {
		return nil, err
	}
	uc.deps.Metrics.TransferStatusChanged(t.Status)
	uc.deps.Log.Info().Str("transfer", t.Number).Str("from", t.FromStoreID).Str("to", t.ToStoreID).Msg("traslado creado")
	return t, nil
}

// AddItem agrega una línea a un traslado en draft. El origen debe tener disponible suficiente para
// esta línea más lo ya listado del mismo producto en los lotes que cubre. No reserva stock.
func (uc *TransferUseCase) AddItem(ctx context.Context, in AddItemInput) (*entity.TransferItem, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	var out entity.TransferItem
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		t, err := getTransferTx(ctx, r, in.TransferID)
		if err != nil {
			return err
		}
		if _, err := inventory.NextTransferStatus(t, inventory.EventEdit); err != nil {
			return err
		}
		records, err := r.Stock.Query(ctx, repository.StockFilter{ProductID: in.ProductID, StoreID: t.FromStoreID, BatchCode: in.BatchCode})
		if err != nil {
			return err
		}
		var available int64
		for _, rec := range records {
			available += rec.Available()
		}
		requested := in.Quantity
		for _, it := range t.Items {
			// Sin lote se compara contra todos los lotes; con lote, solo contra líneas del mismo lote
			if it.ProductID == in.ProductID && (in.BatchCode == "" || it.BatchCode == in.BatchCode) {
				requested += it.QuantitySent
			}
		}
		if available < requested {
			return fmt.Errorf("%w: disponible %d de %s en origen, solicitado %d", domain.ErrInsufficientStock, available, in.ProductID, requested)
		}
		out = entity.TransferItem{
			ID:           uuid.New().String(),
			ProductID:    in.ProductID,
			BatchCode:    in.BatchCode,
			QuantitySent: in.Quantity,
		}
		t.Items = append(t.Items, out)
		t.UpdatedAt = uc.deps.Now()
		return r.Transfers.Update(ctx, t)
	})
	if err != nil {
		uc.deps.Metrics.OperationRejected("add_transfer_item", err)
		return nil, err
	}
	return &out, nil
}

// MarkBarcodeRemoved confirma que se retiró la etiqueta de la tienda origen de una línea.
func (uc *TransferUseCase) MarkBarcodeRemoved(ctx context.Context, transferID, itemID string) error {
	return uc.deps.Tx.Run(ctx, func(r Repos) error {
		t, err := getTransferTx(ctx, r, transferID)
		if err != nil {
			return err
		}
		if _, err := inventory.NextTransferStatus(t, inventory.EventUnlabel); err != nil {
			return err
		}
		it, ok := t.Item(itemID)
		if !ok {
			return fmt.Errorf("%w: línea %s en traslado %s", domain.ErrNotFound, itemID, t.Number)
		}
		it.BarcodeRemoved = true
		t.UpdatedAt = uc.deps.Now()
		return r.Transfers.Update(ctx, t)
	})
}

// SubmitForApproval pasa un borrador que requiere aprobación a pending-approval.
func (uc *TransferUseCase) SubmitForApproval(ctx context.Context, transferID, actor string) (*entity.Transfer, error) {
	return uc.transition(ctx, transferID, inventory.EventSubmit, func(t *entity.Transfer, now time.Time) {
		t.SubmittedBy = actor
		t.SubmittedAt = &now
	})
}

// ApproveTransfer aprueba un traslado pendiente.
func (uc *TransferUseCase) ApproveTransfer(ctx context.Context, transferID, actor string) (*entity.Transfer, error) {
	return uc.transition(ctx, transferID, inventory.EventApprove, func(t *entity.Transfer, now time.Time) {
		t.ApprovedBy = actor
		t.ApprovedAt = &now
	})
}

// RejectTransfer rechaza un traslado pendiente; queda cancelado.
func (uc *TransferUseCase) RejectTransfer(ctx context.Context, transferID, actor, reason string) (*entity.Transfer, error) {
	return uc.transition(ctx, transferID, inventory.EventReject, func(t *entity.Transfer, now time.Time) {
		t.CancelledBy = actor
		t.CancelledAt = &now
		if reason != "" {
			t.Notes = reason
		}
	})
}

// CancelTransfer cancela un traslado que aún no se envió.
func (uc *TransferUseCase) CancelTransfer(ctx context.Context, transferID, actor string) (*entity.Transfer, error) {
	return uc.transition(ctx, transferID, inventory.EventCancel, func(t *entity.Transfer, now time.Time) {
		t.CancelledBy = actor
		t.CancelledAt = &now
	})
}

// DispatchTransfer marca un traslado enviado como en tránsito.
func (uc *TransferUseCase) DispatchTransfer(ctx context.Context, transferID, actor string) (*entity.Transfer, error) {
	return uc.transition(ctx, transferID, inventory.EventDispatch, nil)
}

func (uc *TransferUseCase) transition(
	ctx context.Context, transferID string, ev inventory.TransferEvent,
	mutate func(t *entity.Transfer, now time.Time),
) (*entity.Transfer, error) {
	var out *entity.Transfer
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		t, err := getTransferTx(ctx, r, transferID)
		if err != nil {
			return err
		}
		next, err := inventory.NextTransferStatus(t, ev)
		if err != nil {
			return err
		}
		now := uc.deps.Now()
		t.Status = next
		t.UpdatedAt = now
		if mutate != nil {
			mutate(t, now)
		}
		if err := r.Transfers.Update(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		uc.deps.Metrics.OperationRejected("transfer_"+string(ev), err)
		return nil, err
	}
	uc.deps.Metrics.TransferStatusChanged(out.Status)
	uc.deps.Log.Info().Str("transfer", out.Number).Str("event", string(ev)).Str("status", string(out.Status)).Msg("traslado actualizado")
	return out, nil
}

// allocation cantidad a descontar de un registro origen.
type allocation struct {
	record *entity.StockRecord
	qty    int64
}

// SendTransfer descuenta todas las líneas del origen (transfer-out). Primero valida todas y luego
// aplica todas en la misma transacción: si una línea no tiene stock no se descuenta ninguna.
// Una línea puede repartirse entre varios lotes, vencimiento más próximo primero; la línea guarda el
// vencimiento más próximo y el costo ponderado de lo descontado para el alta en destino.
func (uc *TransferUseCase) SendTransfer(ctx context.Context, transferID, actor string) (*entity.Transfer, error) {
	var out *entity.Transfer
	var committed []*entity.Movement
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		t, err := getTransferTx(ctx, r, transferID)
		if err != nil {
			return err
		}
		next, err := inventory.NextTransferStatus(t, inventory.EventSend)
		if err != nil {
			return err
		}
		if len(t.Items) == 0 {
			return fmt.Errorf("%w: el traslado %s no tiene líneas", domain.ErrInvalidState, t.Number)
		}
		for _, it := range t.Items {
			if !it.BarcodeRemoved {
				return fmt.Errorf("%w: la línea %s (%s) conserva la etiqueta de origen", domain.ErrInvalidState, it.ID, it.ProductID)
			}
		}

		// Validación: bloquea registros y reparte cada línea sin escribir nada
		locked := map[string]*entity.StockRecord{}
		remaining := map[string]int64{}
		var plan []allocation
		for i := range t.Items {
			it := &t.Items[i]
			candidates, err := r.Stock.Query(ctx, repository.StockFilter{ProductID: it.ProductID, StoreID: t.FromStoreID, BatchCode: it.BatchCode})
			if err != nil {
				return err
			}
			it.ExpiryDate = nil
			it.UnitCost = decimal.Zero
			var taken int64
			need := it.QuantitySent
			for _, c := range candidates {
				if need == 0 {
					break
				}
				rec, ok := locked[c.ID]
				if !ok {
					rec, err = r.Stock.GetForUpdate(ctx, c.ID)
					if err != nil {
						return err
					}
					locked[c.ID] = rec
					remaining[c.ID] = rec.Available()
				}
				take := min(need, remaining[c.ID])
				if take <= 0 {
					continue
				}
				remaining[c.ID] -= take
				need -= take
				plan = append(plan, allocation{record: rec, qty: take})
				it.UnitCost = inventory.CostCalculator(taken, it.UnitCost, take, rec.AvgCost)
				taken += take
				if rec.ExpiryDate != nil && (it.ExpiryDate == nil || rec.ExpiryDate.Before(*it.ExpiryDate)) {
					exp := *rec.ExpiryDate
					it.ExpiryDate = &exp
				}
			}
			if need > 0 {
				return fmt.Errorf("%w: faltan %d de %s en el origen para el traslado %s", domain.ErrInsufficientStock, need, it.ProductID, t.Number)
			}
		}

		// Aplicación
		now := uc.deps.Now()
		cause := entity.CauseRef{Type: entity.CauseTransfer, ID: t.ID}
		for _, a := range plan {
			mov, err := applyDeltaTx(ctx, r, a.record, -a.qty, entity.MovementTransferOut, cause, actor, nil, now)
			if err != nil {
				return err
			}
			committed = append(committed, mov)
		}
		t.Status = next
		t.SentBy = actor
		t.SentAt = &now
		t.UpdatedAt = now
		if err := r.Transfers.Update(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		uc.deps.Metrics.OperationRejected("send_transfer", err)
		return nil, err
	}
	for _, m := range committed {
		uc.deps.Metrics.MovementCommitted(m.Kind, m.Delta)
	}
	uc.deps.Metrics.TransferStatusChanged(out.Status)
	uc.deps.Log.Info().Str("transfer", out.Number).Int("movements", len(committed)).Msg("traslado enviado")
	return out, nil
}

// ReceiveTransfer suma lo recibido en destino (transfer-in, registros en pending) y marca las
// discrepancias. Estado final received o partially-received.
func (uc *TransferUseCase) ReceiveTransfer(ctx context.Context, in ReceiveInput) (*ReceiveTransferResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	result := &ReceiveTransferResult{}
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		t, err := getTransferTx(ctx, r, in.TransferID)
		if err != nil {
			return err
		}
		for id, qty := range in.Received {
			if _, ok := t.Item(id); !ok {
				return fmt.Errorf("%w: la línea %s no pertenece al traslado %s", domain.ErrInvalidInput, id, t.Number)
			}
			if qty < 0 {
				return fmt.Errorf("%w: cantidad recibida negativa en la línea %s", domain.ErrInvalidInput, id)
			}
		}
		mismatches := make([]Mismatch, 0)
		for i := range t.Items {
			it := &t.Items[i]
			received := in.Received[it.ID]
			it.QuantityReceived = received
			it.HasMismatch = received != it.QuantitySent
			it.MismatchQuantity = 0
			if it.HasMismatch {
				it.MismatchQuantity = it.QuantitySent - received
				mismatches = append(mismatches, Mismatch{
					ItemID:    it.ID,
					ProductID: it.ProductID,
					BatchCode: it.BatchCode,
					Sent:      it.QuantitySent,
					Received:  received,
					Quantity:  it.MismatchQuantity,
				})
			}
		}
		next, err := inventory.ReceiveOutcome(t, len(mismatches) > 0)
		if err != nil {
			return err
		}
		now := uc.deps.Now()
		for _, it := range t.Items {
			if it.QuantityReceived == 0 {
				continue
			}
			add := AddStockInput{
				ProductID:  it.ProductID,
				StoreID:    t.ToStoreID,
				Quantity:   it.QuantityReceived,
				Kind:       entity.MovementTransferIn,
				CauseType:  entity.CauseTransfer,
				CauseID:    t.ID,
				Actor:      in.Actor,
				BatchCode:  it.BatchCode,
				ExpiryDate: it.ExpiryDate,
			}
			if !it.UnitCost.IsZero() {
				cost := it.UnitCost
				add.UnitCost = &cost
			}
			if _, _, err := addStockTx(ctx, r, add, now); err != nil {
				return err
			}
		}
		t.Status = next
		t.ReceivedBy = in.Actor
		t.ReceivedAt = &now
		t.UpdatedAt = now
		if err := r.Transfers.Update(ctx, t); err != nil {
			return err
		}
		result.Transfer = t
		result.Mismatches = mismatches
		return nil
	})
	if err != nil {
		uc.deps.Metrics.OperationRejected("receive_transfer", err)
		return nil, err
	}
	for _, it := range result.Transfer.Items {
		if it.QuantityReceived > 0 {
			uc.deps.Metrics.MovementCommitted(entity.MovementTransferIn, it.QuantityReceived)
		}
	}
	for _, m := range result.Mismatches {
		uc.deps.Metrics.MismatchDetected(m.Quantity)
		uc.deps.Log.Warn().
			Str("transfer", result.Transfer.Number).
			Str("item_id", m.ItemID).
			Str("product_id", m.ProductID).
			Int64("sent", m.Sent).
			Int64("received", m.Received).
			Msg("discrepancia en recepción de traslado")
	}
	uc.deps.Metrics.TransferStatusChanged(result.Transfer.Status)
	return result, nil
}

// ResolveItemMismatch registra la resolución de una línea con discrepancia.
func (uc *TransferUseCase) ResolveItemMismatch(ctx context.Context, in ResolveItemInput) (*entity.TransferItem, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	var out entity.TransferItem
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		t, err := getTransferTx(ctx, r, in.TransferID)
		if err != nil {
			return err
		}
		it, ok := t.Item(in.ItemID)
		if !ok {
			return fmt.Errorf("%w: línea %s en traslado %s", domain.ErrNotFound, in.ItemID, t.Number)
		}
		if !it.HasMismatch {
			return fmt.Errorf("%w: la línea %s no tiene discrepancia", domain.ErrInvalidState, in.ItemID)
		}
		if it.Resolved {
			return fmt.Errorf("%w: la línea %s ya fue resuelta", domain.ErrInvalidState, in.ItemID)
		}
		now := uc.deps.Now()
		it.Resolved = true
		it.ResolvedBy = in.Actor
		it.ResolvedAt = &now
		it.ResolutionNotes = in.Notes
		it.EscalationID = in.EscalationID
		t.UpdatedAt = now
		out = *it
		return r.Transfers.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// OverdueTransfers traslados enviados o en tránsito cuyo SentAt + SLA ya pasó.
func (uc *TransferUseCase) OverdueTransfers(ctx context.Context, now time.Time) ([]*entity.Transfer, error) {
	var open []*entity.Transfer
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		list, err := r.Transfers.ListByStatus(ctx, entity.TransferSent, entity.TransferInTransit)
		open = list
		return err
	})
	if err != nil {
		return nil, err
	}
	sla := uc.deps.Settings.TransferSLA
	overdue := make([]*entity.Transfer, 0)
	for _, t := range open {
		if t.SentAt != nil && t.SentAt.Add(sla).Before(now) {
			overdue = append(overdue, t)
		}
	}
	sort.Slice(overdue, func(i, j int) bool { return overdue[i].SentAt.Before(*overdue[j].SentAt) })
	return overdue, nil
}

// GetTransfer obtiene un traslado con sus líneas.
func (uc *TransferUseCase) GetTransfer(ctx context.Context, transferID string) (*entity.Transfer, error) {
	var out *entity.Transfer
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		t, err := getTransferTx(ctx, r, transferID)
		out = t
		return err
	})
	return out, err
}

// ListTransfers traslados en los estados indicados.
func (uc *TransferUseCase) ListTransfers(ctx context.Context, statuses ...entity.TransferStatus) ([]*entity.Transfer, error) {
	var out []*entity.Transfer
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		list, err := r.Transfers.ListByStatus(ctx, statuses...)
		out = list
		return err
	})
	return out, err
}

// PrintManifest genera el manifiesto del traslado con SKU y nombre del catálogo.
func (uc *TransferUseCase) PrintManifest(ctx context.Context, transferID string) ([]byte, error) {
	if uc.manifest == nil {
		return nil, fmt.Errorf("%w: no hay generador de manifiestos configurado", domain.ErrInvalidState)
	}
	t, err := uc.GetTransfer(ctx, transferID)
	if err != nil {
		return nil, err
	}
	m := Manifest{
		Number:     t.Number,
		FromStore:  uc.storeLabel(ctx, t.FromStoreID),
		ToStore:    uc.storeLabel(ctx, t.ToStoreID),
		Status:     t.Status,
		SentAt:     t.SentAt,
		ReceivedAt: t.ReceivedAt,
		Lines:      make([]ManifestLine, 0, len(t.Items)),
	}
	for _, it := range t.Items {
		line := ManifestLine{
			SKU:              it.ProductID,
			BatchCode:        it.BatchCode,
			QuantitySent:     it.QuantitySent,
			QuantityReceived: it.QuantityReceived,
			MismatchQuantity: it.MismatchQuantity,
		}
		if p, err := uc.deps.Products.GetByID(ctx, it.ProductID); err == nil && p != nil {
			line.SKU, line.ProductName = p.SKU, p.Name
		}
		m.Lines = append(m.Lines, line)
	}
	doc, err := uc.manifest.RenderManifest(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("generar manifiesto: %w", err)
	}
	return doc, nil
}

func (uc *TransferUseCase) storeLabel(ctx context.Context, storeID string) string {
	s, err := uc.deps.Stores.GetByID(ctx, storeID)
	if err != nil || s == nil {
		return storeID
	}
	return s.Code + " " + s.Name
}

func getTransferTx(ctx context.Context, r Repos, id string) (*entity.Transfer, error) {
	t, err := r.Transfers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: traslado %s", domain.ErrNotFound, id)
	}
	return t, nil
}
