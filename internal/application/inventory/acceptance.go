package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
)

// AcceptanceUseCase ciclo de aceptación: stock recibido (pending) pasa a listo para góndola (accepted)
// con un código de barras propio de la tienda. No modifica cantidades.
type AcceptanceUseCase struct {
	deps     Deps
	renderer LabelRenderer
}

// NewAcceptanceUseCase construye el caso de uso. renderer puede ser nil si no se imprimen etiquetas.
func NewAcceptanceUseCase(deps Deps, renderer LabelRenderer) *AcceptanceUseCase {
	return &AcceptanceUseCase{deps: deps.withDefaults(), renderer: renderer}
}

// AcceptInput entrada para aceptar stock. StoreCode vacío usa el código de la tienda del registro.
type AcceptInput struct {
	RecordID     string `validate:"required"`
	Actor        string `validate:"required"`
	LocationCode string `validate:"required"`
	StoreCode    string
}

// EscalateInput discrepancia entre lo esperado y lo contado al recibir.
type EscalateInput struct {
	RecordID    string `validate:"required"`
	Actor       string `validate:"required"`
	ExpectedQty int64  `validate:"gte=0"`
	ActualQty   int64  `validate:"gte=0"`
	Notes       string
}

// AcceptStock acepta el registro y devuelve el código de barras generado.
// Falla con ErrInvalidState si ya estaba aceptado.
func (uc *AcceptanceUseCase) AcceptStock(ctx context.Context, in AcceptInput) (string, error) {
	if err := validateInput(in); err != nil {
		return "", err
	}
	var barcode string
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		rec, err := r.Stock.GetForUpdate(ctx, in.RecordID)
		if err != nil {
			return err
		}
		next, err := inventory.NextAcceptanceStatus(rec.Status, inventory.EventAccept)
		if err != nil {
			return err
		}
		product, err := uc.deps.Products.GetByID(ctx, rec.Key.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, rec.Key.ProductID)
		}
		storeCode := in.StoreCode
		if storeCode == "" {
			store, err := uc.deps.Stores.GetByID(ctx, rec.Key.StoreID)
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("%w: tienda %s", domain.ErrNotFound, rec.Key.StoreID)
			}
			storeCode = store.Code
		}
		barcode = inventory.ComposeBarcode(storeCode, in.LocationCode, product.SKU, uc.deps.Suffix())
		rec.Status = next
		rec.LocationCode = in.LocationCode
		rec.HandlerID = in.Actor
		rec.Barcode = barcode
		rec.BarcodePrinted = false
		rec.BarcodePrintedAt = nil
		rec.UpdatedAt = uc.deps.Now()
		return r.Stock.Update(ctx, rec)
	})
	if err != nil {
		uc.deps.Metrics.OperationRejected("accept_stock", err)
		return "", err
	}
	uc.deps.Log.Info().Str("record_id", in.RecordID).Str("barcode", barcode).Str("actor", in.Actor).Msg("stock aceptado")
	return barcode, nil
}

// EscalateMismatch marca el registro como escalado y devuelve el ID de escalamiento para el gestor de tareas.
// No modifica la cantidad.
func (uc *AcceptanceUseCase) EscalateMismatch(ctx context.Context, in EscalateInput) (string, error) {
	if err := validateInput(in); err != nil {
		return "", err
	}
	now := uc.deps.Now()
	esc := &entity.Escalation{
		ID:            uuid.New().String(),
		StockRecordID: in.RecordID,
		ExpectedQty:   in.ExpectedQty,
		ActualQty:     in.ActualQty,
		Notes:         in.Notes,
		RaisedBy:      in.Actor,
		RaisedAt:      now,
	}
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		rec, err := r.Stock.GetForUpdate(ctx, in.RecordID)
		if err != nil {
			return err
		}
		next, err := inventory.NextAcceptanceStatus(rec.Status, inventory.EventEscalate)
		if err != nil {
			return err
		}
		rec.Status = next
		rec.HandlerID = in.Actor
		rec.UpdatedAt = now
		if err := r.Stock.Update(ctx, rec); err != nil {
			return err
		}
		return r.Escalations.Create(ctx, esc)
	})
	if err != nil {
		uc.deps.Metrics.OperationRejected("escalate_mismatch", err)
		return "", err
	}
	uc.deps.Log.Warn().
		Str("record_id", in.RecordID).
		Str("escalation_id", esc.ID).
		Int64("expected", in.ExpectedQty).
		Int64("actual", in.ActualQty).
		Msg("discrepancia escalada")
	return esc.ID, nil
}

// ResolveEscalation pasa un registro escalado a resolved; lo invoca el gestor de tareas externo.
func (uc *AcceptanceUseCase) ResolveEscalation(ctx context.Context, recordID, actor string) error {
	return uc.deps.Tx.Run(ctx, func(r Repos) error {
		rec, err := r.Stock.GetForUpdate(ctx, recordID)
		if err != nil {
			return err
		}
		next, err := inventory.NextAcceptanceStatus(rec.Status, inventory.EventResolve)
		if err != nil {
			return err
		}
		rec.Status = next
		rec.HandlerID = actor
		rec.UpdatedAt = uc.deps.Now()
		return r.Stock.Update(ctx, rec)
	})
}

// MarkBarcodePrinted registra la impresión de la etiqueta.
func (uc *AcceptanceUseCase) MarkBarcodePrinted(ctx context.Context, recordID string) error {
	return uc.deps.Tx.Run(ctx, func(r Repos) error {
		return markPrintedTx(ctx, r, recordID, uc.deps.Now())
	})
}

// PrintLabels genera el PDF de etiquetas de los registros aceptados y los marca como impresos.
func (uc *AcceptanceUseCase) PrintLabels(ctx context.Context, recordIDs []string) ([]byte, error) {
	if uc.renderer == nil {
		return nil, fmt.Errorf("%w: no hay generador de etiquetas configurado", domain.ErrInvalidState)
	}
	if len(recordIDs) == 0 {
		return nil, fmt.Errorf("%w: sin registros para imprimir", domain.ErrInvalidInput)
	}
	labels := make([]Label, 0, len(recordIDs))
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		for _, id := range recordIDs {
			rec, err := r.Stock.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("%w: registro de stock %s", domain.ErrNotFound, id)
			}
			if rec.Status != entity.AcceptanceAccepted || rec.Barcode == "" {
				return fmt.Errorf("%w: el registro %s no está aceptado", domain.ErrInvalidState, id)
			}
			label := Label{
				Barcode:      rec.Barcode,
				LocationCode: rec.LocationCode,
				BatchCode:    rec.Key.BatchCode,
				ExpiryDate:   rec.ExpiryDate,
			}
			if p, err := uc.deps.Products.GetByID(ctx, rec.Key.ProductID); err == nil && p != nil {
				label.SKU, label.ProductName = p.SKU, p.Name
			}
			if s, err := uc.deps.Stores.GetByID(ctx, rec.Key.StoreID); err == nil && s != nil {
				label.StoreCode = s.Code
			}
			labels = append(labels, label)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	doc, err := uc.renderer.RenderLabels(ctx, labels)
	if err != nil {
		return nil, fmt.Errorf("generar etiquetas: %w", err)
	}
	now := uc.deps.Now()
	err = uc.deps.Tx.Run(ctx, func(r Repos) error {
		for _, id := range recordIDs {
			if err := markPrintedTx(ctx, r, id, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func markPrintedTx(ctx context.Context, r Repos, recordID string, now time.Time) error {
	rec, err := r.Stock.GetForUpdate(ctx, recordID)
	if err != nil {
		return err
	}
	if rec.Barcode == "" {
		return fmt.Errorf("%w: el registro %s no tiene código de barras", domain.ErrInvalidState, recordID)
	}
	rec.BarcodePrinted = true
	rec.BarcodePrintedAt = &now
	rec.UpdatedAt = now
	return r.Stock.Update(ctx, rec)
}
