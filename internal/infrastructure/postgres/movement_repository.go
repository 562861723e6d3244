package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo ledger append-only sobre PostgreSQL. sequence es bigserial.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, sequence, stock_record_id, product_id, store_id, batch_code, kind, delta,
	quantity_before, quantity_after, reserved_before, reserved_after, cause_type, cause_id, actor,
	unit_cost, total_cost, created_at`

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	err := row.Scan(
		&m.ID, &m.Sequence, &m.StockRecordID, &m.ProductID, &m.StoreID, &m.BatchCode, &m.Kind, &m.Delta,
		&m.QuantityBefore, &m.QuantityAfter, &m.ReservedBefore, &m.ReservedAfter, &m.Cause.Type, &m.Cause.ID,
		&m.Actor, &m.UnitCost, &m.TotalCost, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Append persiste el movimiento y devuelve la secuencia asignada por la base.
func (r *MovementRepo) Append(ctx context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (id, stock_record_id, product_id, store_id, batch_code, kind, delta,
			quantity_before, quantity_after, reserved_before, reserved_after, cause_type, cause_id, actor,
			unit_cost, total_cost, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING sequence`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.StockRecordID, m.ProductID, m.StoreID, m.BatchCode, m.Kind, m.Delta,
		m.QuantityBefore, m.QuantityAfter, m.ReservedBefore, m.ReservedAfter, m.Cause.Type, m.Cause.ID,
		m.Actor, m.UnitCost, m.TotalCost, m.CreatedAt,
	).Scan(&m.Sequence)
	if err != nil {
		return fmt.Errorf("append movement: %w", err)
	}
	return nil
}

// ListByRecord movimientos de un registro en orden de secuencia.
func (r *MovementRepo) ListByRecord(ctx context.Context, stockRecordID string) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE stock_record_id = $1 ORDER BY sequence`
	return r.list(ctx, query, stockRecordID)
}

// ListSince movimientos con created_at >= since en orden de secuencia.
func (r *MovementRepo) ListSince(ctx context.Context, since time.Time, limit int) ([]*entity.Movement, error) {
	if limit <= 0 {
		limit = 500
	}
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE created_at >= $1 ORDER BY sequence LIMIT $2`
	return r.list(ctx, query, since, limit)
}

func (r *MovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.Movement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
