package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// LedgerUseCase registra entradas y salidas de stock de forma transaccional.
// Cada llamada mutante actualiza el registro y agrega exactamente un Movement en la misma transacción.
type LedgerUseCase struct {
	deps Deps
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(deps Deps) *LedgerUseCase {
	return &LedgerUseCase{deps: deps.withDefaults()}
}

// AddStockInput entrada para sumar stock. Kind debe ser de entrada (purchase-in, transfer-in, return-in, adjustment-plus).
type AddStockInput struct {
	ProductID    string              `validate:"required"`
	StoreID      string              `validate:"required"`
	Quantity     int64               `validate:"gt=0"`
	Kind         entity.MovementKind `validate:"required,inbound_kind"`
	CauseType    string              `validate:"required"`
	CauseID      string
	Actor        string
	BatchCode    string
	ExpiryDate   *time.Time
	LocationCode string
	UnitCost     *decimal.Decimal // opcional; recalcula el costo promedio
}

// ReduceStockInput entrada para restar stock. Kind debe ser de salida.
type ReduceStockInput struct {
	ProductID string              `validate:"required"`
	StoreID   string              `validate:"required"`
	Quantity  int64               `validate:"gt=0"`
	Kind      entity.MovementKind `validate:"required,outbound_kind"`
	CauseType string              `validate:"required"`
	CauseID   string
	Actor     string
	BatchCode string
}

// AddStock busca o crea el registro por identidad, suma la cantidad y agrega el movimiento.
func (uc *LedgerUseCase) AddStock(ctx context.Context, in AddStockInput) (*entity.StockRecord, error) {
	if err := validateInput(in); err != nil {
		uc.deps.Metrics.OperationRejected("add_stock", err)
		return nil, err
	}
	var out *entity.StockRecord
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		rec, _, err := addStockTx(ctx, r, in, uc.deps.Now())
		if err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		uc.deps.Metrics.OperationRejected("add_stock", err)
		return nil, err
	}
	uc.deps.Metrics.MovementCommitted(in.Kind, in.Quantity)
	return out, nil
}

// ReduceStock resta cantidad si available >= qty: las reservas protegen el stock de pedidos pendientes.
func (uc *LedgerUseCase) ReduceStock(ctx context.Context, in ReduceStockInput) (*entity.Movement, error) {
	if err := validateInput(in); err != nil {
		uc.deps.Metrics.OperationRejected("reduce_stock", err)
		return nil, err
	}
	var out *entity.Movement
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		_, mov, err := reduceStockTx(ctx, r, in, uc.deps.Now())
		if err != nil {
			return err
		}
		out = mov
		return nil
	})
	if err != nil {
		uc.deps.Metrics.OperationRejected("reduce_stock", err)
		return nil, err
	}
	uc.deps.Metrics.MovementCommitted(in.Kind, -in.Quantity)
	return out, nil
}

// GetRecord obtiene un registro de stock por ID.
func (uc *LedgerUseCase) GetRecord(ctx context.Context, id string) (*entity.StockRecord, error) {
	var out *entity.StockRecord
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		rec, err := r.Stock.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("%w: registro de stock %s", domain.ErrNotFound, id)
		}
		out = rec
		return nil
	})
	return out, err
}

// FindRecords lista los registros (todos los lotes) de un producto en una tienda.
func (uc *LedgerUseCase) FindRecords(ctx context.Context, productID, storeID string) ([]*entity.StockRecord, error) {
	var out []*entity.StockRecord
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		list, err := r.Stock.Query(ctx, repository.StockFilter{ProductID: productID, StoreID: storeID})
		out = list
		return err
	})
	return out, err
}

// ── operaciones dentro de una transacción (compartidas por traslados, reservas y conteos) ──

// addStockTx busca o crea el registro y le suma la cantidad. Un registro nuevo nace en estado pending;
// un transfer-in devuelve a pending el registro ya aceptado.
func addStockTx(ctx context.Context, r Repos, in AddStockInput, now time.Time) (*entity.StockRecord, *entity.Movement, error) {
	key := entity.NewStockKey(in.ProductID, in.StoreID, in.BatchCode)
	existing, err := r.Stock.GetByKey(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	if existing == nil {
		rec := &entity.StockRecord{
			ID:           uuid.New().String(),
			Key:          key,
			LocationCode: in.LocationCode,
			Status:       entity.AcceptancePending,
			ExpiryDate:   in.ExpiryDate,
			AvgCost:      decimal.Zero,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := r.Stock.Create(ctx, rec); err != nil {
			// Otra transacción creó la misma clave entre la búsqueda y el INSERT
			if errors.Is(err, domain.ErrDuplicate) {
				return nil, nil, fmt.Errorf("%w: alta concurrente de %s en %s (lote %s)", domain.ErrConflict, key.ProductID, key.StoreID, key.BatchCode)
			}
			return nil, nil, err
		}
		existing = rec
	}
	// Bloquea el registro (SELECT FOR UPDATE en PostgreSQL) antes de mutarlo
	rec, err := r.Stock.GetForUpdate(ctx, existing.ID)
	if err != nil {
		return nil, nil, err
	}
	if rec.ExpiryDate == nil && in.ExpiryDate != nil {
		rec.ExpiryDate = in.ExpiryDate
	}
	if in.LocationCode != "" {
		rec.LocationCode = in.LocationCode
	}
	// Lo recibido por traslado vuelve a exigir aceptación en destino. Escalated y resolved ya la exigen.
	if in.Kind == entity.MovementTransferIn && rec.Status == entity.AcceptanceAccepted {
		rec.Status = entity.AcceptancePending
		rec.Barcode = ""
		rec.BarcodePrinted = false
		rec.BarcodePrintedAt = nil
	}
	mov, err := applyDeltaTx(ctx, r, rec, in.Quantity, in.Kind, entity.CauseRef{Type: in.CauseType, ID: in.CauseID}, in.Actor, in.UnitCost, now)
	if err != nil {
		return nil, nil, err
	}
	return rec, mov, nil
}

// reduceStockTx resta cantidad del registro identificado por producto+tienda+lote.
func reduceStockTx(ctx context.Context, r Repos, in ReduceStockInput, now time.Time) (*entity.StockRecord, *entity.Movement, error) {
	key := entity.NewStockKey(in.ProductID, in.StoreID, in.BatchCode)
	existing, err := r.Stock.GetByKey(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	if existing == nil {
		return nil, nil, fmt.Errorf("%w: no hay stock de %s en la tienda %s (lote %s)", domain.ErrNotFound, key.ProductID, key.StoreID, key.BatchCode)
	}
	rec, err := r.Stock.GetForUpdate(ctx, existing.ID)
	if err != nil {
		return nil, nil, err
	}
	mov, err := applyDeltaTx(ctx, r, rec, -in.Quantity, in.Kind, entity.CauseRef{Type: in.CauseType, ID: in.CauseID}, in.Actor, nil, now)
	if err != nil {
		return nil, nil, err
	}
	return rec, mov, nil
}

// applyDeltaTx aplica un delta físico a un registro ya bloqueado y agrega el movimiento.
// Delta negativo exige available >= |delta|.
func applyDeltaTx(
	ctx context.Context, r Repos, rec *entity.StockRecord,
	delta int64, kind entity.MovementKind, cause entity.CauseRef, actor string,
	unitCost *decimal.Decimal, now time.Time,
) (*entity.Movement, error) {
	if delta < 0 && rec.Available() < -delta {
		return nil, fmt.Errorf("%w: disponible %d, solicitado %d (registro %s)", domain.ErrInsufficientStock, rec.Available(), -delta, rec.ID)
	}
	before := rec.Quantity
	cost := rec.AvgCost
	if delta > 0 && unitCost != nil {
		rec.AvgCost = inventory.CostCalculator(before, rec.AvgCost, delta, *unitCost)
		cost = *unitCost
	}
	rec.Quantity += delta
	rec.UpdatedAt = now
	if err := r.Stock.Update(ctx, rec); err != nil {
		return nil, err
	}
	mov := &entity.Movement{
		ID:             uuid.New().String(),
		StockRecordID:  rec.ID,
		ProductID:      rec.Key.ProductID,
		StoreID:        rec.Key.StoreID,
		BatchCode:      rec.Key.BatchCode,
		Kind:           kind,
		Delta:          delta,
		QuantityBefore: before,
		QuantityAfter:  rec.Quantity,
		ReservedBefore: rec.Reserved,
		ReservedAfter:  rec.Reserved,
		Cause:          cause,
		Actor:          actor,
		UnitCost:       cost,
		TotalCost:      inventory.MovementCost(delta, cost),
		CreatedAt:      now,
	}
	if err := r.Movements.Append(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// applyReservedDeltaTx mueve el contador de reservado (sin tocar la cantidad física) y agrega el movimiento.
func applyReservedDeltaTx(
	ctx context.Context, r Repos, rec *entity.StockRecord,
	delta int64, cause entity.CauseRef, actor string, now time.Time,
) (*entity.Movement, error) {
	before := rec.Reserved
	after := before + delta
	if after < 0 || after > rec.Quantity {
		return nil, fmt.Errorf("%w: reservado %d fuera de rango [0,%d] (registro %s)", domain.ErrInsufficientStock, after, rec.Quantity, rec.ID)
	}
	rec.Reserved = after
	rec.UpdatedAt = now
	if err := r.Stock.Update(ctx, rec); err != nil {
		return nil, err
	}
	kind := entity.MovementReserved
	if delta < 0 {
		kind = entity.MovementUnreserved
	}
	mov := &entity.Movement{
		ID:             uuid.New().String(),
		StockRecordID:  rec.ID,
		ProductID:      rec.Key.ProductID,
		StoreID:        rec.Key.StoreID,
		BatchCode:      rec.Key.BatchCode,
		Kind:           kind,
		QuantityBefore: rec.Quantity,
		QuantityAfter:  rec.Quantity,
		ReservedBefore: before,
		ReservedAfter:  after,
		Cause:          cause,
		Actor:          actor,
		UnitCost:       rec.AvgCost,
		TotalCost:      decimal.Zero,
		CreatedAt:      now,
	}
	if err := r.Movements.Append(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}
