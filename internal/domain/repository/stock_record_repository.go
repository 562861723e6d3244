package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// StockFilter filtro para consultar registros de stock. Campos vacíos no filtran.
type StockFilter struct {
	ProductID  string
	StoreID    string
	BatchCode  string
	WithExpiry bool // solo registros con fecha de vencimiento
}

// StockRecordRepository define el puerto de persistencia para StockRecord.
// Usado dentro de transacciones (TxRunner) para garantizar consistencia.
type StockRecordRepository interface {
	GetByID(ctx context.Context, id string) (*entity.StockRecord, error)
	// GetByKey devuelve nil, nil si no existe el registro para la identidad.
	GetByKey(ctx context.Context, key entity.StockKey) (*entity.StockRecord, error)
	// GetForUpdate como GetByID pero bloquea el registro hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.StockRecord, error)
	// Query devuelve los registros ordenados por vencimiento ascendente (sin fecha al final) y luego por creación.
	Query(ctx context.Context, filter StockFilter) ([]*entity.StockRecord, error)
	Create(ctx context.Context, record *entity.StockRecord) error
	// Update persiste si record.Version coincide con la versión guardada (ErrConflict si no) e incrementa Version.
	Update(ctx context.Context, record *entity.StockRecord) error
}
