package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// StockCountRepository persistencia de sesiones de conteo con sus líneas.
type StockCountRepository interface {
	Create(ctx context.Context, session *entity.StockCountSession) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.StockCountSession, error)
	Update(ctx context.Context, session *entity.StockCountSession) error
}
