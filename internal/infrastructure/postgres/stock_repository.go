package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.StockRecordRepository = (*StockRecordRepo)(nil)

// StockRecordRepo implementación de StockRecordRepository sobre PostgreSQL (usable con pool o tx).
type StockRecordRepo struct {
	q Querier
}

// NewStockRecordRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRecordRepository(q Querier) *StockRecordRepo {
	return &StockRecordRepo{q: q}
}

const stockColumns = `id, product_id, store_id, batch_code, quantity, reserved, location_code, status, handler_id,
	expiry_date, barcode, barcode_printed, barcode_printed_at, last_count_qty, last_counted_at,
	avg_cost, version, created_at, updated_at`

func scanStockRecord(row pgx.Row) (*entity.StockRecord, error) {
	var s entity.StockRecord
	err := row.Scan(
		&s.ID, &s.Key.ProductID, &s.Key.StoreID, &s.Key.BatchCode, &s.Quantity, &s.Reserved,
		&s.LocationCode, &s.Status, &s.HandlerID, &s.ExpiryDate, &s.Barcode, &s.BarcodePrinted,
		&s.BarcodePrintedAt, &s.LastCountQty, &s.LastCountedAt, &s.AvgCost, &s.Version,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID obtiene un registro por ID; nil, nil si no existe.
func (r *StockRecordRepo) GetByID(ctx context.Context, id string) (*entity.StockRecord, error) {
	s, err := scanStockRecord(r.q.QueryRow(ctx, `SELECT `+stockColumns+` FROM stock_records WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock record: %w", err)
	}
	return s, nil
}

// GetByKey obtiene el registro de producto+tienda+lote; nil, nil si no existe.
func (r *StockRecordRepo) GetByKey(ctx context.Context, key entity.StockKey) (*entity.StockRecord, error) {
	key = entity.NewStockKey(key.ProductID, key.StoreID, key.BatchCode)
	query := `SELECT ` + stockColumns + ` FROM stock_records
		WHERE product_id = $1 AND store_id = $2 AND batch_code = $3`
	s, err := scanStockRecord(r.q.QueryRow(ctx, query, key.ProductID, key.StoreID, key.BatchCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock record by key: %w", err)
	}
	return s, nil
}

// GetForUpdate obtiene el registro y bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
func (r *StockRecordRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockRecord, error) {
	s, err := scanStockRecord(r.q.QueryRow(ctx, `SELECT `+stockColumns+` FROM stock_records WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: registro de stock %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get stock record for update: %w", err)
	}
	return s, nil
}

// Query lista registros por filtro, vencimiento más próximo primero (sin fecha al final).
func (r *StockRecordRepo) Query(ctx context.Context, f repository.StockFilter) ([]*entity.StockRecord, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.StoreID != "" {
		add("store_id = $%d", f.StoreID)
	}
	if f.BatchCode != "" {
		add("batch_code = $%d", entity.NewStockKey("", "", f.BatchCode).BatchCode)
	}
	if f.WithExpiry {
		where = append(where, "expiry_date IS NOT NULL")
	}
	query := `SELECT ` + stockColumns + ` FROM stock_records`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY expiry_date ASC NULLS LAST, created_at ASC, id ASC"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stock records: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.StockRecord, 0)
	for rows.Next() {
		s, err := scanStockRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock record: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create inserta el registro con versión 1. ErrDuplicate si ya existe la identidad.
func (r *StockRecordRepo) Create(ctx context.Context, s *entity.StockRecord) error {
	s.Key = entity.NewStockKey(s.Key.ProductID, s.Key.StoreID, s.Key.BatchCode)
	s.Version = 1
	query := `INSERT INTO stock_records (` + stockColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.Key.ProductID, s.Key.StoreID, s.Key.BatchCode, s.Quantity, s.Reserved,
		s.LocationCode, s.Status, s.HandlerID, s.ExpiryDate, s.Barcode, s.BarcodePrinted,
		s.BarcodePrintedAt, s.LastCountQty, s.LastCountedAt, s.AvgCost, s.Version,
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return insertError(err, "insert stock record", fmt.Sprintf("stock de %s en %s (lote %s)", s.Key.ProductID, s.Key.StoreID, s.Key.BatchCode))
	}
	return nil
}

// Update persiste con control optimista: version = version + 1 WHERE version = $n.
func (r *StockRecordRepo) Update(ctx context.Context, s *entity.StockRecord) error {
	query := `
		UPDATE stock_records SET
			quantity = $3, reserved = $4, location_code = $5, status = $6, handler_id = $7,
			expiry_date = $8, barcode = $9, barcode_printed = $10, barcode_printed_at = $11,
			last_count_qty = $12, last_counted_at = $13, avg_cost = $14, updated_at = $15,
			version = version + 1
		WHERE id = $1 AND version = $2`
	tag, err := r.q.Exec(ctx, query,
		s.ID, s.Version, s.Quantity, s.Reserved, s.LocationCode, s.Status, s.HandlerID,
		s.ExpiryDate, s.Barcode, s.BarcodePrinted, s.BarcodePrintedAt,
		s.LastCountQty, s.LastCountedAt, s.AvgCost, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update stock record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: registro %s versión %d", domain.ErrConflict, s.ID, s.Version)
	}
	s.Version++
	return nil
}
