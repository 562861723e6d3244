package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// StockCountUseCase conteo físico periódico y conciliación contra el ledger.
type StockCountUseCase struct {
	deps Deps
}

// NewStockCountUseCase construye el caso de uso.
func NewStockCountUseCase(deps Deps) *StockCountUseCase {
	return &StockCountUseCase{deps: deps.withDefaults()}
}

// CountLineInput línea contada. SystemQty es la cantidad que reportaba el sistema al contar.
type CountLineInput struct {
	SessionID string `validate:"required"`
	ProductID string `validate:"required"`
	BatchCode string
	SystemQty int64 `validate:"gte=0"`
	ActualQty int64 `validate:"gte=0"`
}

// Adjustment ajuste aplicado al completar un conteo.
type Adjustment struct {
	StockRecordID string
	ProductID     string
	BatchCode     string
	Variance      int64
	Movement      *entity.Movement
}

// CountResult sesión completada y los ajustes que generó.
type CountResult struct {
	Session     *entity.StockCountSession
	Adjustments []Adjustment
}

// StartCount abre una sesión de conteo en la tienda.
func (uc *StockCountUseCase) StartCount(ctx context.Context, storeID, actor string) (*entity.StockCountSession, error) {
	if storeID == "" || actor == "" {
		return nil, fmt.Errorf("%w: tienda y responsable son obligatorios", domain.ErrInvalidInput)
	}
	store, err := uc.deps.Stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("%w: tienda %s", domain.ErrNotFound, storeID)
	}
	now := uc.deps.Now()
	s := &entity.StockCountSession{
		ID:        uuid.New().String(),
		StoreID:   storeID,
		Date:      now,
		CountedBy: actor,
		Status:    entity.CountInProgress,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		return r.Counts.Create(ctx, s)
	}); err != nil {
		return nil, err
	}
	return s, nil
}

// RecordCountLine registra una línea. Una línea posterior para el mismo producto+lote reemplaza la anterior.
func (uc *StockCountUseCase) RecordCountLine(ctx context.Context, in CountLineInput) (*entity.StockCountSession, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	var out *entity.StockCountSession
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		s, err := getCountTx(ctx, r, in.SessionID)
		if err != nil {
			return err
		}
		if s.Status != entity.CountInProgress {
			return fmt.Errorf("%w: el conteo %s está %s", domain.ErrInvalidState, s.ID, s.Status)
		}
		now := uc.deps.Now()
		line := entity.CountLine{
			ProductID: in.ProductID,
			BatchCode: entity.NewStockKey(in.ProductID, s.StoreID, in.BatchCode).BatchCode,
			SystemQty: in.SystemQty,
			ActualQty: in.ActualQty,
			Variance:  in.ActualQty - in.SystemQty,
			CountedAt: now,
		}
		replaced := false
		for i := range s.Lines {
			if s.Lines[i].ProductID == line.ProductID && s.Lines[i].BatchCode == line.BatchCode {
				s.Lines[i] = line
				replaced = true
				break
			}
		}
		if !replaced {
			s.Lines = append(s.Lines, line)
		}
		s.RecomputeTotals()
		s.UpdatedAt = now
		if err := r.Counts.Update(ctx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CompleteCount cierra la sesión. Con applyAdjustments cada varianza distinta de cero genera un
// adjustment-plus o adjustment-minus (causa count) en la misma transacción que el cambio de estado.
// Un ajuste que dejaría la cantidad por debajo de lo reservado rechaza todo el cierre y la sesión
// sigue en progreso: las reservas no se liberan implícitamente.
func (uc *StockCountUseCase) CompleteCount(ctx context.Context, sessionID, actor string, applyAdjustments bool) (*CountResult, error) {
	result := &CountResult{}
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		s, err := getCountTx(ctx, r, sessionID)
		if err != nil {
			return err
		}
		if s.Status != entity.CountInProgress {
			return fmt.Errorf("%w: el conteo %s ya fue completado", domain.ErrInvalidState, s.ID)
		}
		now := uc.deps.Now()
		cause := entity.CauseRef{Type: entity.CauseCount, ID: s.ID}
		result.Adjustments = make([]Adjustment, 0)
		for _, l := range s.Lines {
			existing, err := r.Stock.GetByKey(ctx, entity.NewStockKey(l.ProductID, s.StoreID, l.BatchCode))
			if err != nil {
				return err
			}
			if existing == nil {
				if applyAdjustments && l.Variance > 0 {
					add := AddStockInput{
						ProductID: l.ProductID, StoreID: s.StoreID, BatchCode: l.BatchCode,
						Quantity: l.Variance, Kind: entity.MovementAdjustmentPlus,
						CauseType: cause.Type, CauseID: cause.ID, Actor: actor,
					}
					rec, mov, err := addStockTx(ctx, r, add, now)
					if err != nil {
						return err
					}
					if err := snapshotCountTx(ctx, r, rec, l, now); err != nil {
						return err
					}
					result.Adjustments = append(result.Adjustments, Adjustment{rec.ID, l.ProductID, l.BatchCode, l.Variance, mov})
				}
				continue
			}
			rec, err := r.Stock.GetForUpdate(ctx, existing.ID)
			if err != nil {
				return err
			}
			if applyAdjustments && l.Variance != 0 {
				kind := entity.MovementAdjustmentPlus
				if l.Variance < 0 {
					kind = entity.MovementAdjustmentMinus
					if rec.Quantity+l.Variance < rec.Reserved {
						return fmt.Errorf("%w: el conteo de %s (lote %s) deja %d unidades y hay %d reservadas; liberar reservas o completar sin ajustes",
							domain.ErrInsufficientStock, l.ProductID, rec.Key.BatchCode, rec.Quantity+l.Variance, rec.Reserved)
					}
				}
				mov, err := applyDeltaTx(ctx, r, rec, l.Variance, kind, cause, actor, nil, now)
				if err != nil {
					return err
				}
				result.Adjustments = append(result.Adjustments, Adjustment{rec.ID, l.ProductID, l.BatchCode, l.Variance, mov})
			}
			if err := snapshotCountTx(ctx, r, rec, l, now); err != nil {
				return err
			}
		}
		s.Status = entity.CountCompleted
		s.CompletedBy = actor
		s.CompletedAt = &now
		s.AdjustmentsApplied = applyAdjustments
		s.UpdatedAt = now
		if err := r.Counts.Update(ctx, s); err != nil {
			return err
		}
		result.Session = s
		return nil
	})
	if err != nil {
		uc.deps.Metrics.OperationRejected("complete_count", err)
		return nil, err
	}
	for _, a := range result.Adjustments {
		uc.deps.Metrics.MovementCommitted(a.Movement.Kind, a.Movement.Delta)
	}
	uc.deps.Log.Info().
		Str("session_id", sessionID).
		Int("products", result.Session.ProductsCounted).
		Int("variances", result.Session.VariancesFound).
		Int("adjustments", len(result.Adjustments)).
		Msg("conteo completado")
	return result, nil
}

// GetCount obtiene una sesión de conteo.
func (uc *StockCountUseCase) GetCount(ctx context.Context, sessionID string) (*entity.StockCountSession, error) {
	var out *entity.StockCountSession
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		s, err := getCountTx(ctx, r, sessionID)
		out = s
		return err
	})
	return out, err
}

// snapshotCountTx guarda la última cantidad contada en el registro.
func snapshotCountTx(ctx context.Context, r Repos, rec *entity.StockRecord, l entity.CountLine, now time.Time) error {
	qty := l.ActualQty
	rec.LastCountQty = &qty
	rec.LastCountedAt = &now
	rec.UpdatedAt = now
	return r.Stock.Update(ctx, rec)
}

func getCountTx(ctx context.Context, r Repos, id string) (*entity.StockCountSession, error) {
	s, err := r.Counts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: conteo %s", domain.ErrNotFound, id)
	}
	return s, nil
}
