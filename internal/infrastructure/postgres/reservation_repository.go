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

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo handles de reserva sobre PostgreSQL.
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

const reservationColumns = `id, stock_record_id, product_id, store_id, order_ref, quantity, released, status,
	created_by, created_at, updated_at`

func scanReservation(row pgx.Row) (*entity.Reservation, error) {
	var r entity.Reservation
	err := row.Scan(&r.ID, &r.StockRecordID, &r.ProductID, &r.StoreID, &r.OrderRef, &r.Quantity,
		&r.Released, &r.Status, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *ReservationRepo) Create(ctx context.Context, res *entity.Reservation) error {
	query := `INSERT INTO reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query, res.ID, res.StockRecordID, res.ProductID, res.StoreID, res.OrderRef,
		res.Quantity, res.Released, res.Status, res.CreatedBy, res.CreatedAt, res.UpdatedAt)
	if err != nil {
		return insertError(err, "insert reservation", fmt.Sprintf("reserva %s", res.ID))
	}
	return nil
}

func (r *ReservationRepo) GetByID(ctx context.Context, id string) (*entity.Reservation, error) {
	res, err := scanReservation(r.q.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

func (r *ReservationRepo) Update(ctx context.Context, res *entity.Reservation) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE reservations SET released = $2, status = $3, updated_at = $4 WHERE id = $1`,
		res.ID, res.Released, res.Status, res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: reserva %s", domain.ErrNotFound, res.ID)
	}
	return nil
}

func (r *ReservationRepo) ListByOrder(ctx context.Context, orderRef string) ([]*entity.Reservation, error) {
	rows, err := r.q.Query(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE order_ref = $1 ORDER BY created_at`, orderRef)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
