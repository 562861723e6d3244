package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// MovementRepository puerto del ledger append-only. No hay Update ni Delete.
type MovementRepository interface {
	// Append asigna ID (si falta) y Sequence monotónico y persiste el movimiento.
	Append(ctx context.Context, movement *entity.Movement) error
	// ListByRecord devuelve los movimientos de un registro en orden de Sequence.
	ListByRecord(ctx context.Context, stockRecordID string) ([]*entity.Movement, error)
	// ListSince devuelve movimientos con CreatedAt >= since en orden de Sequence.
	ListSince(ctx context.Context, since time.Time, limit int) ([]*entity.Movement, error)
}
