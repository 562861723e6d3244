package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// AuditUseCase feed de auditoría del ledger para consumidores externos.
type AuditUseCase struct {
	deps Deps
}

// NewAuditUseCase construye el caso de uso.
func NewAuditUseCase(deps Deps) *AuditUseCase {
	return &AuditUseCase{deps: deps.withDefaults()}
}

// LedgerCheck resultado de recomputar un registro desde sus movimientos.
type LedgerCheck struct {
	StockRecordID    string
	Quantity         int64
	Reserved         int64
	SumDelta         int64
	SumReservedDelta int64
	Movements        int
	Consistent       bool
}

// MovementsSince movimientos desde since en orden de secuencia. limit <= 0 usa 500.
func (uc *AuditUseCase) MovementsSince(ctx context.Context, since time.Time, limit int) ([]*entity.Movement, error) {
	if limit <= 0 {
		limit = 500
	}
	var out []*entity.Movement
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		list, err := r.Movements.ListSince(ctx, since, limit)
		out = list
		return err
	})
	return out, err
}

// RecordHistory movimientos de un registro en orden de commit.
func (uc *AuditUseCase) RecordHistory(ctx context.Context, recordID string) ([]*entity.Movement, error) {
	var out []*entity.Movement
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		list, err := r.Movements.ListByRecord(ctx, recordID)
		out = list
		return err
	})
	return out, err
}

// VerifyRecord comprueba que la cantidad y el reservado del registro coinciden con la suma de sus movimientos.
func (uc *AuditUseCase) VerifyRecord(ctx context.Context, recordID string) (*LedgerCheck, error) {
	var check LedgerCheck
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		rec, err := r.Stock.GetByID(ctx, recordID)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("%w: registro de stock %s", domain.ErrNotFound, recordID)
		}
		movs, err := r.Movements.ListByRecord(ctx, recordID)
		if err != nil {
			return err
		}
		check = LedgerCheck{StockRecordID: rec.ID, Quantity: rec.Quantity, Reserved: rec.Reserved, Movements: len(movs)}
		for _, m := range movs {
			check.SumDelta += m.Delta
			check.SumReservedDelta += m.ReservedAfter - m.ReservedBefore
		}
		check.Consistent = check.SumDelta == rec.Quantity && check.SumReservedDelta == rec.Reserved
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !check.Consistent {
		uc.deps.Log.Error().
			Str("record_id", recordID).
			Int64("quantity", check.Quantity).
			Int64("sum_delta", check.SumDelta).
			Int64("reserved", check.Reserved).
			Int64("sum_reserved_delta", check.SumReservedDelta).
			Msg("registro inconsistente con el ledger")
	}
	return &check, nil
}
