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

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo traslados (cabecera + líneas) sobre PostgreSQL. Usar dentro de una tx:
// Create y Update escriben varias tablas.
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `id, number, from_store_id, to_store_id, status, requires_approval,
	submitted_by, submitted_at, approved_by, approved_at, sent_by, sent_at, received_by, received_at, cancelled_by, cancelled_at,
	notes, created_by, version, created_at, updated_at`

func scanTransfer(row pgx.Row) (*entity.Transfer, error) {
	var t entity.Transfer
	err := row.Scan(&t.ID, &t.Number, &t.FromStoreID, &t.ToStoreID, &t.Status, &t.RequiresApproval,
		&t.SubmittedBy, &t.SubmittedAt, &t.ApprovedBy, &t.ApprovedAt, &t.SentBy, &t.SentAt, &t.ReceivedBy, &t.ReceivedAt,
		&t.CancelledBy, &t.CancelledAt, &t.Notes, &t.CreatedBy, &t.Version, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserta cabecera y líneas con versión 1.
func (r *TransferRepo) Create(ctx context.Context, t *entity.Transfer) error {
	t.Version = 1
	query := `INSERT INTO transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.Number, t.FromStoreID, t.ToStoreID, t.Status, t.RequiresApproval,
		t.SubmittedBy, t.SubmittedAt, t.ApprovedBy, t.ApprovedAt, t.SentBy, t.SentAt, t.ReceivedBy, t.ReceivedAt,
		t.CancelledBy, t.CancelledAt, t.Notes, t.CreatedBy, t.Version, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return insertError(err, "insert transfer", fmt.Sprintf("traslado %s", t.Number))
	}
	return r.insertItems(ctx, t)
}

// GetByID obtiene el traslado con sus líneas; nil, nil si no existe.
func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.Transfer, error) {
	t, err := scanTransfer(r.q.QueryRow(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	if err := r.loadItems(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update reemplaza cabecera y líneas si la versión coincide.
func (r *TransferRepo) Update(ctx context.Context, t *entity.Transfer) error {
	query := `
		UPDATE transfers SET
			status = $3, approved_by = $4, approved_at = $5, sent_by = $6, sent_at = $7,
			received_by = $8, received_at = $9, cancelled_by = $10, cancelled_at = $11,
			notes = $12, updated_at = $13, submitted_by = $14, submitted_at = $15, version = version + 1
		WHERE id = $1 AND version = $2`
	tag, err := r.q.Exec(ctx, query,
		t.ID, t.Version, t.Status, t.ApprovedBy, t.ApprovedAt, t.SentBy, t.SentAt,
		t.ReceivedBy, t.ReceivedAt, t.CancelledBy, t.CancelledAt, t.Notes, t.UpdatedAt,
		t.SubmittedBy, t.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: traslado %s versión %d", domain.ErrConflict, t.Number, t.Version)
	}
	t.Version++
	if _, err := r.q.Exec(ctx, `DELETE FROM transfer_items WHERE transfer_id = $1`, t.ID); err != nil {
		return fmt.Errorf("delete transfer items: %w", err)
	}
	return r.insertItems(ctx, t)
}

// ListByStatus traslados en los estados dados (todos si no se indica ninguno).
func (r *TransferRepo) ListByStatus(ctx context.Context, statuses ...entity.TransferStatus) ([]*entity.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers`
	var args []any
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, s := range statuses {
			names[i] = string(s)
		}
		query += ` WHERE status = ANY($1)`
		args = append(args, names)
	}
	query += ` ORDER BY created_at`
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	out := make([]*entity.Transfer, 0)
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		out = append(out, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, t := range out {
		if err := r.loadItems(ctx, t); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *TransferRepo) insertItems(ctx context.Context, t *entity.Transfer) error {
	query := `
		INSERT INTO transfer_items (id, transfer_id, position, product_id, batch_code, quantity_sent,
			quantity_received, barcode_removed, has_mismatch, mismatch_quantity, resolved, resolved_by,
			resolved_at, resolution_notes, escalation_id, expiry_date, unit_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	for i, it := range t.Items {
		_, err := r.q.Exec(ctx, query,
			it.ID, t.ID, i, it.ProductID, it.BatchCode, it.QuantitySent, it.QuantityReceived,
			it.BarcodeRemoved, it.HasMismatch, it.MismatchQuantity, it.Resolved, it.ResolvedBy,
			it.ResolvedAt, it.ResolutionNotes, it.EscalationID, it.ExpiryDate, it.UnitCost,
		)
		if err != nil {
			return fmt.Errorf("insert transfer item: %w", err)
		}
	}
	return nil
}

func (r *TransferRepo) loadItems(ctx context.Context, t *entity.Transfer) error {
	rows, err := r.q.Query(ctx, `
		SELECT id, product_id, batch_code, quantity_sent, quantity_received, barcode_removed,
			has_mismatch, mismatch_quantity, resolved, resolved_by, resolved_at, resolution_notes, escalation_id,
			expiry_date, unit_cost
		FROM transfer_items WHERE transfer_id = $1 ORDER BY position`, t.ID)
	if err != nil {
		return fmt.Errorf("list transfer items: %w", err)
	}
	defer rows.Close()
	t.Items = make([]entity.TransferItem, 0)
	for rows.Next() {
		var it entity.TransferItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.BatchCode, &it.QuantitySent, &it.QuantityReceived,
			&it.BarcodeRemoved, &it.HasMismatch, &it.MismatchQuantity, &it.Resolved, &it.ResolvedBy,
			&it.ResolvedAt, &it.ResolutionNotes, &it.EscalationID, &it.ExpiryDate, &it.UnitCost); err != nil {
			return fmt.Errorf("scan transfer item: %w", err)
		}
		t.Items = append(t.Items, it)
	}
	return rows.Err()
}
