package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var (
	_ repository.MovementRepository    = (*movementRepo)(nil)
	_ repository.ReservationRepository = (*reservationRepo)(nil)
	_ repository.TransferRepository    = (*transferRepo)(nil)
	_ repository.StockCountRepository  = (*countRepo)(nil)
	_ repository.EscalationRepository  = (*escalationRepo)(nil)
)

// ── movimientos (append-only) ──

type movementRepo struct {
	st *state
}

func (r *movementRepo) Append(_ context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	r.st.seq++
	m.Sequence = r.st.seq
	c := *m
	r.st.movements = append(r.st.movements, &c)
	return nil
}

func (r *movementRepo) ListByRecord(_ context.Context, recordID string) ([]*entity.Movement, error) {
	out := make([]*entity.Movement, 0)
	for _, m := range r.st.movements {
		if m.StockRecordID == recordID {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *movementRepo) ListSince(_ context.Context, since time.Time, limit int) ([]*entity.Movement, error) {
	out := make([]*entity.Movement, 0)
	for _, m := range r.st.movements {
		if m.CreatedAt.Before(since) {
			continue
		}
		c := *m
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ── reservas ──

type reservationRepo struct {
	st *state
}

func (r *reservationRepo) Create(_ context.Context, res *entity.Reservation) error {
	if _, ok := r.st.reservations[res.ID]; ok {
		return fmt.Errorf("%w: reserva %s", domain.ErrDuplicate, res.ID)
	}
	c := *res
	r.st.reservations[res.ID] = &c
	return nil
}

func (r *reservationRepo) GetByID(_ context.Context, id string) (*entity.Reservation, error) {
	res, ok := r.st.reservations[id]
	if !ok {
		return nil, nil
	}
	c := *res
	return &c, nil
}

func (r *reservationRepo) Update(_ context.Context, res *entity.Reservation) error {
	if _, ok := r.st.reservations[res.ID]; !ok {
		return fmt.Errorf("%w: reserva %s", domain.ErrNotFound, res.ID)
	}
	c := *res
	r.st.reservations[res.ID] = &c
	return nil
}

func (r *reservationRepo) ListByOrder(_ context.Context, orderRef string) ([]*entity.Reservation, error) {
	out := make([]*entity.Reservation, 0)
	for _, res := range r.st.reservations {
		if res.OrderRef == orderRef {
			c := *res
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ── traslados ──

type transferRepo struct {
	st *state
}

func (r *transferRepo) Create(_ context.Context, t *entity.Transfer) error {
	if _, ok := r.st.transfers[t.ID]; ok {
		return fmt.Errorf("%w: traslado %s", domain.ErrDuplicate, t.ID)
	}
	t.Version = 1
	r.st.transfers[t.ID] = t.Clone()
	return nil
}

func (r *transferRepo) GetByID(_ context.Context, id string) (*entity.Transfer, error) {
	return r.st.transfers[id].Clone(), nil
}

func (r *transferRepo) Update(_ context.Context, t *entity.Transfer) error {
	stored, ok := r.st.transfers[t.ID]
	if !ok {
		return fmt.Errorf("%w: traslado %s", domain.ErrNotFound, t.ID)
	}
	if stored.Version != t.Version {
		return fmt.Errorf("%w: traslado %s versión %d, guardada %d", domain.ErrConflict, t.Number, t.Version, stored.Version)
	}
	t.Version++
	r.st.transfers[t.ID] = t.Clone()
	return nil
}

func (r *transferRepo) ListByStatus(_ context.Context, statuses ...entity.TransferStatus) ([]*entity.Transfer, error) {
	want := make(map[entity.TransferStatus]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	out := make([]*entity.Transfer, 0)
	for _, t := range r.st.transfers {
		if len(want) == 0 || want[t.Status] {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ── conteos ──

type countRepo struct {
	st *state
}

func (r *countRepo) Create(_ context.Context, s *entity.StockCountSession) error {
	if _, ok := r.st.counts[s.ID]; ok {
		return fmt.Errorf("%w: conteo %s", domain.ErrDuplicate, s.ID)
	}
	r.st.counts[s.ID] = s.Clone()
	return nil
}

func (r *countRepo) GetByID(_ context.Context, id string) (*entity.StockCountSession, error) {
	return r.st.counts[id].Clone(), nil
}

func (r *countRepo) Update(_ context.Context, s *entity.StockCountSession) error {
	if _, ok := r.st.counts[s.ID]; !ok {
		return fmt.Errorf("%w: conteo %s", domain.ErrNotFound, s.ID)
	}
	r.st.counts[s.ID] = s.Clone()
	return nil
}

// ── escalamientos ──

type escalationRepo struct {
	st *state
}

func (r *escalationRepo) Create(_ context.Context, e *entity.Escalation) error {
	if _, ok := r.st.escalations[e.ID]; ok {
		return fmt.Errorf("%w: escalamiento %s", domain.ErrDuplicate, e.ID)
	}
	c := *e
	r.st.escalations[e.ID] = &c
	return nil
}

func (r *escalationRepo) GetByID(_ context.Context, id string) (*entity.Escalation, error) {
	e, ok := r.st.escalations[id]
	if !ok {
		return nil, nil
	}
	c := *e
	return &c, nil
}
