package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

func newRecord(id, product, store, batch string, expiry *time.Time, created time.Time) *entity.StockRecord {
	return &entity.StockRecord{
		ID:         id,
		Key:        entity.NewStockKey(product, store, batch),
		Status:     entity.AcceptancePending,
		ExpiryDate: expiry,
		CreatedAt:  created,
	}
}

func TestStore_RollbackDescartaEscrituras(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	boom := errors.New("falla")

	err := s.Run(ctx, func(r inventory.Repos) error {
		require.NoError(t, r.Stock.Create(ctx, newRecord("r1", "p1", "s1", "", nil, time.Now())))
		require.NoError(t, r.Movements.Append(ctx, &entity.Movement{StockRecordID: "r1", Delta: 5}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_ = s.Run(ctx, func(r inventory.Repos) error {
		rec, err := r.Stock.GetByID(ctx, "r1")
		require.NoError(t, err)
		assert.Nil(t, rec, "el registro no debe existir tras rollback")
		movs, err := r.Movements.ListByRecord(ctx, "r1")
		require.NoError(t, err)
		assert.Empty(t, movs)
		return nil
	})
}

func TestStore_CommitPublicaEscrituras(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.Run(ctx, func(r inventory.Repos) error {
		return r.Stock.Create(ctx, newRecord("r1", "p1", "s1", "", nil, time.Now()))
	}))
	_ = s.Run(ctx, func(r inventory.Repos) error {
		rec, err := r.Stock.GetByKey(ctx, entity.NewStockKey("p1", "s1", ""))
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "r1", rec.ID)
		assert.Equal(t, int64(1), rec.Version)
		return nil
	})
}

func TestStockRepo_UpdateConflictoDeVersion(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Run(ctx, func(r inventory.Repos) error {
		return r.Stock.Create(ctx, newRecord("r1", "p1", "s1", "", nil, time.Now()))
	}))

	err := s.Run(ctx, func(r inventory.Repos) error {
		a, _ := r.Stock.GetForUpdate(ctx, "r1")
		b, _ := r.Stock.GetForUpdate(ctx, "r1")
		a.Quantity = 5
		require.NoError(t, r.Stock.Update(ctx, a))
		assert.Equal(t, int64(2), a.Version)
		b.Quantity = 9
		return r.Stock.Update(ctx, b)
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestStockRepo_GetForUpdateNoEncontrado(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	err := s.Run(ctx, func(r inventory.Repos) error {
		_, err := r.Stock.GetForUpdate(ctx, "nope")
		return err
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStockRepo_CreateDuplicadoPorIdentidad(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	err := s.Run(ctx, func(r inventory.Repos) error {
		require.NoError(t, r.Stock.Create(ctx, newRecord("r1", "p1", "s1", "", nil, time.Now())))
		return r.Stock.Create(ctx, newRecord("r2", "p1", "s1", entity.NoBatch, nil, time.Now()))
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestStockRepo_QueryOrdenPorVencimiento(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	late := base.AddDate(0, 2, 0)
	soon := base.AddDate(0, 0, 10)

	require.NoError(t, s.Run(ctx, func(r inventory.Repos) error {
		require.NoError(t, r.Stock.Create(ctx, newRecord("sin-fecha", "p1", "s1", "", nil, base)))
		require.NoError(t, r.Stock.Create(ctx, newRecord("tarde", "p1", "s1", "L2", &late, base)))
		require.NoError(t, r.Stock.Create(ctx, newRecord("pronto", "p1", "s1", "L1", &soon, base.Add(time.Hour))))
		return r.Stock.Create(ctx, newRecord("otra-tienda", "p1", "s2", "", nil, base))
	}))

	_ = s.Run(ctx, func(r inventory.Repos) error {
		list, err := r.Stock.Query(ctx, repository.StockFilter{ProductID: "p1", StoreID: "s1"})
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "pronto", list[0].ID)
		assert.Equal(t, "tarde", list[1].ID)
		assert.Equal(t, "sin-fecha", list[2].ID)

		withExpiry, err := r.Stock.Query(ctx, repository.StockFilter{StoreID: "s1", WithExpiry: true})
		require.NoError(t, err)
		assert.Len(t, withExpiry, 2)

		byBatch, err := r.Stock.Query(ctx, repository.StockFilter{ProductID: "p1", BatchCode: "L2"})
		require.NoError(t, err)
		require.Len(t, byBatch, 1)
		assert.Equal(t, "tarde", byBatch[0].ID)
		return nil
	})
}

func TestMovementRepo_SecuenciaMonotonica(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_ = s.Run(ctx, func(r inventory.Repos) error {
		for i := 0; i < 3; i++ {
			require.NoError(t, r.Movements.Append(ctx, &entity.Movement{StockRecordID: "r1", Delta: 1, CreatedAt: time.Now()}))
		}
		return nil
	})
	_ = s.Run(ctx, func(r inventory.Repos) error {
		movs, err := r.Movements.ListByRecord(ctx, "r1")
		require.NoError(t, err)
		require.Len(t, movs, 3)
		for i, m := range movs {
			assert.Equal(t, int64(i+1), m.Sequence)
			assert.NotEmpty(t, m.ID)
		}
		return nil
	})
}

func TestStore_TransaccionesConcurrentesSeSerializan(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Run(ctx, func(r inventory.Repos) error {
		return r.Stock.Create(ctx, newRecord("r1", "p1", "s1", "", nil, time.Now()))
	}))

	const workers = 50
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Run(ctx, func(r inventory.Repos) error {
				rec, err := r.Stock.GetForUpdate(ctx, "r1")
				if err != nil {
					return err
				}
				rec.Quantity++
				if err := r.Stock.Update(ctx, rec); err != nil {
					return err
				}
				return r.Movements.Append(ctx, &entity.Movement{StockRecordID: "r1", Delta: 1, CreatedAt: time.Now()})
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	_ = s.Run(ctx, func(r inventory.Repos) error {
		rec, err := r.Stock.GetByID(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, int64(workers), rec.Quantity, "ningún incremento se pierde")
		assert.Equal(t, int64(workers+1), rec.Version)
		movs, err := r.Movements.ListByRecord(ctx, "r1")
		require.NoError(t, err)
		require.Len(t, movs, workers)
		for i, m := range movs {
			assert.Equal(t, int64(i+1), m.Sequence)
		}
		return nil
	})
}

func TestStore_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := NewStore().Run(ctx, func(inventory.Repos) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestCatalog_Lookups(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog(entity.Product{ID: "p1", SKU: "LECHE-1L", Name: "Leche", CategoryCode: "LAC"})
	p, err := c.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "LECHE-1L", p.SKU)
	missing, err := c.GetByID(ctx, "p2")
	require.NoError(t, err)
	assert.Nil(t, missing)

	cats := NewCategoryTable(entity.Category{Code: "LAC", MinStock: 12})
	cat, err := cats.GetByCode(ctx, "LAC")
	require.NoError(t, err)
	assert.Equal(t, int64(12), cat.MinStock)
}
