package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.EscalationRepository = (*EscalationRepo)(nil)

// EscalationRepo escalamientos entregados al gestor de tareas.
type EscalationRepo struct {
	q Querier
}

// NewEscalationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewEscalationRepository(q Querier) *EscalationRepo {
	return &EscalationRepo{q: q}
}

func (r *EscalationRepo) Create(ctx context.Context, e *entity.Escalation) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO escalations (id, stock_record_id, transfer_id, expected_qty, actual_qty, notes, raised_by, raised_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.StockRecordID, e.TransferID, e.ExpectedQty, e.ActualQty, e.Notes, e.RaisedBy, e.RaisedAt)
	if err != nil {
		return insertError(err, "insert escalation", fmt.Sprintf("escalamiento %s", e.ID))
	}
	return nil
}

func (r *EscalationRepo) GetByID(ctx context.Context, id string) (*entity.Escalation, error) {
	var e entity.Escalation
	err := r.q.QueryRow(ctx, `
		SELECT id, stock_record_id, transfer_id, expected_qty, actual_qty, notes, raised_by, raised_at
		FROM escalations WHERE id = $1`, id).Scan(
		&e.ID, &e.StockRecordID, &e.TransferID, &e.ExpectedQty, &e.ActualQty, &e.Notes, &e.RaisedBy, &e.RaisedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get escalation: %w", err)
	}
	return &e, nil
}
