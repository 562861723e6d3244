package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// CategoryRepository tabla de mínimos por categoría (solo lectura).
type CategoryRepository interface {
	// GetByCode devuelve nil, nil si la categoría no tiene mínimo configurado.
	GetByCode(ctx context.Context, code string) (*entity.Category, error)
}
