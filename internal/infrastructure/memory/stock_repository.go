package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.StockRecordRepository = (*stockRepo)(nil)

type stockRepo struct {
	st *state
}

func (r *stockRepo) GetByID(_ context.Context, id string) (*entity.StockRecord, error) {
	return r.st.records[id].Clone(), nil
}

func (r *stockRepo) GetByKey(_ context.Context, key entity.StockKey) (*entity.StockRecord, error) {
	key = entity.NewStockKey(key.ProductID, key.StoreID, key.BatchCode)
	id, ok := r.st.byKey[key]
	if !ok {
		return nil, nil
	}
	return r.st.records[id].Clone(), nil
}

// GetForUpdate el mutex de Store ya serializa la transacción; no hay bloqueo adicional.
func (r *stockRepo) GetForUpdate(_ context.Context, id string) (*entity.StockRecord, error) {
	rec, ok := r.st.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: registro de stock %s", domain.ErrNotFound, id)
	}
	return rec.Clone(), nil
}

func (r *stockRepo) Query(_ context.Context, f repository.StockFilter) ([]*entity.StockRecord, error) {
	batch := ""
	if f.BatchCode != "" {
		batch = entity.NewStockKey("", "", f.BatchCode).BatchCode
	}
	out := make([]*entity.StockRecord, 0)
	for _, rec := range r.st.records {
		if f.ProductID != "" && rec.Key.ProductID != f.ProductID {
			continue
		}
		if f.StoreID != "" && rec.Key.StoreID != f.StoreID {
			continue
		}
		if batch != "" && rec.Key.BatchCode != batch {
			continue
		}
		if f.WithExpiry && rec.ExpiryDate == nil {
			continue
		}
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.ExpiryDate != nil && b.ExpiryDate == nil:
			return true
		case a.ExpiryDate == nil && b.ExpiryDate != nil:
			return false
		case a.ExpiryDate != nil && !a.ExpiryDate.Equal(*b.ExpiryDate):
			return a.ExpiryDate.Before(*b.ExpiryDate)
		case !a.CreatedAt.Equal(b.CreatedAt):
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.ID < b.ID
		}
	})
	return out, nil
}

func (r *stockRepo) Create(_ context.Context, rec *entity.StockRecord) error {
	rec.Key = entity.NewStockKey(rec.Key.ProductID, rec.Key.StoreID, rec.Key.BatchCode)
	if _, ok := r.st.records[rec.ID]; ok {
		return fmt.Errorf("%w: registro de stock %s", domain.ErrDuplicate, rec.ID)
	}
	if _, ok := r.st.byKey[rec.Key]; ok {
		return fmt.Errorf("%w: ya existe stock de %s en %s (lote %s)", domain.ErrDuplicate, rec.Key.ProductID, rec.Key.StoreID, rec.Key.BatchCode)
	}
	rec.Version = 1
	r.st.records[rec.ID] = rec.Clone()
	r.st.byKey[rec.Key] = rec.ID
	return nil
}

func (r *stockRepo) Update(_ context.Context, rec *entity.StockRecord) error {
	stored, ok := r.st.records[rec.ID]
	if !ok {
		return fmt.Errorf("%w: registro de stock %s", domain.ErrNotFound, rec.ID)
	}
	if stored.Version != rec.Version {
		return fmt.Errorf("%w: registro %s versión %d, guardada %d", domain.ErrConflict, rec.ID, rec.Version, stored.Version)
	}
	rec.Version++
	r.st.records[rec.ID] = rec.Clone()
	return nil
}
