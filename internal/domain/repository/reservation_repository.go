package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ReservationRepository persistencia de handles de reserva.
type ReservationRepository interface {
	Create(ctx context.Context, reservation *entity.Reservation) error
	GetByID(ctx context.Context, id string) (*entity.Reservation, error)
	Update(ctx context.Context, reservation *entity.Reservation) error
	ListByOrder(ctx context.Context, orderRef string) ([]*entity.Reservation, error)
}
