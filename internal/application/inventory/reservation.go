package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// ReservationUseCase reservas contra pedidos pendientes: mueven el contador Reserved sin tocar Quantity.
type ReservationUseCase struct {
	deps Deps
}

// NewReservationUseCase construye el caso de uso.
func NewReservationUseCase(deps Deps) *ReservationUseCase {
	return &ReservationUseCase{deps: deps.withDefaults()}
}

// ReserveInput entrada para reservar stock para un pedido.
type ReserveInput struct {
	ProductID string `validate:"required"`
	StoreID   string `validate:"required"`
	Quantity  int64  `validate:"gt=0"`
	OrderRef  string `validate:"required"`
	Actor     string
}

// ReleaseInput libera una reserva por su handle. Quantity 0 libera todo lo pendiente.
type ReleaseInput struct {
	ReservationID string `validate:"required"`
	Quantity      int64  `validate:"gte=0"`
	Actor         string
}

// ReserveStock elige el primer registro del par producto+tienda con available >= qty
// (vencimiento más próximo primero). No reparte una reserva entre varios registros.
func (uc *ReservationUseCase) ReserveStock(ctx context.Context, in ReserveInput) (*entity.Reservation, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	now := uc.deps.Now()
	var out *entity.Reservation
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		candidates, err := r.Stock.Query(ctx, repository.StockFilter{ProductID: in.ProductID, StoreID: in.StoreID})
		if err != nil {
			return err
		}
		for _, c := range candidates {
			if c.Available() < in.Quantity {
				continue
			}
			rec, err := r.Stock.GetForUpdate(ctx, c.ID)
			if err != nil {
				return err
			}
			// Revalida tras el bloqueo
			if rec.Available() < in.Quantity {
				continue
			}
			if _, err := applyReservedDeltaTx(ctx, r, rec, in.Quantity,
				entity.CauseRef{Type: entity.CauseOrder, ID: in.OrderRef}, in.Actor, now); err != nil {
				return err
			}
			res := &entity.Reservation{
				ID:            uuid.New().String(),
				StockRecordID: rec.ID,
				ProductID:     in.ProductID,
				StoreID:       in.StoreID,
				OrderRef:      in.OrderRef,
				Quantity:      in.Quantity,
				Status:        entity.ReservationActive,
				CreatedBy:     in.Actor,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := r.Reservations.Create(ctx, res); err != nil {
				return err
			}
			out = res
			return nil
		}
		return fmt.Errorf("%w: ningún registro de %s en %s tiene %d disponibles", domain.ErrInsufficientStock, in.ProductID, in.StoreID, in.Quantity)
	})
	if err != nil {
		uc.deps.Metrics.OperationRejected("reserve_stock", err)
		return nil, err
	}
	uc.deps.Metrics.MovementCommitted(entity.MovementReserved, 0)
	return out, nil
}

// ReleaseReservation libera (total o parcialmente) la reserva identificada por su handle,
// siempre sobre el mismo registro que la originó.
func (uc *ReservationUseCase) ReleaseReservation(ctx context.Context, in ReleaseInput) (*entity.Reservation, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	now := uc.deps.Now()
	var out *entity.Reservation
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		res, rec, qty, err := loadReservationTx(ctx, r, in.ReservationID, in.Quantity)
		if err != nil {
			return err
		}
		if _, err := applyReservedDeltaTx(ctx, r, rec, -qty,
			entity.CauseRef{Type: entity.CauseOrder, ID: res.OrderRef}, in.Actor, now); err != nil {
			return err
		}
		markReleased(res, qty, now)
		if err := r.Reservations.Update(ctx, res); err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		uc.deps.Metrics.OperationRejected("release_reservation", err)
		return nil, err
	}
	uc.deps.Metrics.MovementCommitted(entity.MovementUnreserved, 0)
	return out, nil
}

// FulfillReservation convierte lo pendiente de la reserva en venta: libera y descuenta
// (sale-out) sobre el mismo registro en una sola transacción.
func (uc *ReservationUseCase) FulfillReservation(ctx context.Context, reservationID, actor string) (*entity.Movement, error) {
	if reservationID == "" {
		return nil, fmt.Errorf("%w: reservation_id requerido", domain.ErrInvalidInput)
	}
	now := uc.deps.Now()
	var out *entity.Movement
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		res, rec, qty, err := loadReservationTx(ctx, r, reservationID, 0)
		if err != nil {
			return err
		}
		cause := entity.CauseRef{Type: entity.CauseOrder, ID: res.OrderRef}
		if _, err := applyReservedDeltaTx(ctx, r, rec, -qty, cause, actor, now); err != nil {
			return err
		}
		mov, err := applyDeltaTx(ctx, r, rec, -qty, entity.MovementSaleOut, cause, actor, nil, now)
		if err != nil {
			return err
		}
		markReleased(res, qty, now)
		if err := r.Reservations.Update(ctx, res); err != nil {
			return err
		}
		out = mov
		return nil
	})
	if err != nil {
		uc.deps.Metrics.OperationRejected("fulfill_reservation", err)
		return nil, err
	}
	uc.deps.Metrics.MovementCommitted(entity.MovementSaleOut, out.Delta)
	return out, nil
}

// ListReservations handles de un pedido.
func (uc *ReservationUseCase) ListReservations(ctx context.Context, orderRef string) ([]*entity.Reservation, error) {
	var out []*entity.Reservation
	err := uc.deps.Tx.Run(ctx, func(r Repos) error {
		list, err := r.Reservations.ListByOrder(ctx, orderRef)
		out = list
		return err
	})
	return out, err
}

// loadReservationTx carga la reserva activa y bloquea su registro. qty 0 = todo lo pendiente.
func loadReservationTx(ctx context.Context, r Repos, id string, qty int64) (*entity.Reservation, *entity.StockRecord, int64, error) {
	res, err := r.Reservations.GetByID(ctx, id)
	if err != nil {
		return nil, nil, 0, err
	}
	if res == nil {
		return nil, nil, 0, fmt.Errorf("%w: reserva %s", domain.ErrNotFound, id)
	}
	if res.Status != entity.ReservationActive {
		return nil, nil, 0, fmt.Errorf("%w: la reserva %s está %s", domain.ErrInvalidState, id, res.Status)
	}
	if qty == 0 {
		qty = res.Remaining()
	}
	if qty > res.Remaining() {
		return nil, nil, 0, fmt.Errorf("%w: se intentan liberar %d y la reserva %s solo tiene %d", domain.ErrInvalidState, qty, id, res.Remaining())
	}
	rec, err := r.Stock.GetForUpdate(ctx, res.StockRecordID)
	if err != nil {
		return nil, nil, 0, err
	}
	return res, rec, qty, nil
}

func markReleased(res *entity.Reservation, qty int64, now time.Time) {
	res.Released += qty
	if res.Remaining() == 0 {
		res.Status = entity.ReservationReleased
	}
	res.UpdatedAt = now
}
