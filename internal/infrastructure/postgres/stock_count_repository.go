package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.StockCountRepository = (*StockCountRepo)(nil)

// StockCountRepo sesiones de conteo con sus líneas sobre PostgreSQL.
type StockCountRepo struct {
	q Querier
}

// NewStockCountRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockCountRepository(q Querier) *StockCountRepo {
	return &StockCountRepo{q: q}
}

func (r *StockCountRepo) Create(ctx context.Context, s *entity.StockCountSession) error {
	query := `
		INSERT INTO stock_counts (id, store_id, count_date, counted_by, status, products_counted,
			variances_found, adjustments_applied, completed_by, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query, s.ID, s.StoreID, s.Date, s.CountedBy, s.Status, s.ProductsCounted,
		s.VariancesFound, s.AdjustmentsApplied, s.CompletedBy, s.CompletedAt, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return insertError(err, "insert stock count", fmt.Sprintf("conteo %s", s.ID))
	}
	return r.insertLines(ctx, s)
}

func (r *StockCountRepo) GetByID(ctx context.Context, id string) (*entity.StockCountSession, error) {
	var s entity.StockCountSession
	err := r.q.QueryRow(ctx, `
		SELECT id, store_id, count_date, counted_by, status, products_counted, variances_found,
			adjustments_applied, completed_by, completed_at, created_at, updated_at
		FROM stock_counts WHERE id = $1`, id).Scan(
		&s.ID, &s.StoreID, &s.Date, &s.CountedBy, &s.Status, &s.ProductsCounted, &s.VariancesFound,
		&s.AdjustmentsApplied, &s.CompletedBy, &s.CompletedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock count: %w", err)
	}
	rows, err := r.q.Query(ctx, `
		SELECT product_id, batch_code, system_qty, actual_qty, variance, counted_at
		FROM stock_count_lines WHERE count_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("list stock count lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.CountLine
		if err := rows.Scan(&l.ProductID, &l.BatchCode, &l.SystemQty, &l.ActualQty, &l.Variance, &l.CountedAt); err != nil {
			return nil, fmt.Errorf("scan stock count line: %w", err)
		}
		s.Lines = append(s.Lines, l)
	}
	return &s, rows.Err()
}

func (r *StockCountRepo) Update(ctx context.Context, s *entity.StockCountSession) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE stock_counts SET status = $2, products_counted = $3, variances_found = $4,
			adjustments_applied = $5, completed_by = $6, completed_at = $7, updated_at = $8
		WHERE id = $1`,
		s.ID, s.Status, s.ProductsCounted, s.VariancesFound, s.AdjustmentsApplied,
		s.CompletedBy, s.CompletedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update stock count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: conteo %s", domain.ErrNotFound, s.ID)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM stock_count_lines WHERE count_id = $1`, s.ID); err != nil {
		return fmt.Errorf("delete stock count lines: %w", err)
	}
	return r.insertLines(ctx, s)
}

func (r *StockCountRepo) insertLines(ctx context.Context, s *entity.StockCountSession) error {
	for i, l := range s.Lines {
		_, err := r.q.Exec(ctx, `
			INSERT INTO stock_count_lines (count_id, position, product_id, batch_code, system_qty, actual_qty, variance, counted_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			s.ID, i, l.ProductID, l.BatchCode, l.SystemQty, l.ActualQty, l.Variance, l.CountedAt)
		if err != nil {
			return fmt.Errorf("insert stock count line: %w", err)
		}
	}
	return nil
}
