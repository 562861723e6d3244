package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// TransferRepository persistencia de traslados con sus líneas.
type TransferRepository interface {
	Create(ctx context.Context, transfer *entity.Transfer) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Transfer, error)
	// Update reemplaza cabecera y líneas; control optimista por Version (ErrConflict).
	Update(ctx context.Context, transfer *entity.Transfer) error
	ListByStatus(ctx context.Context, statuses ...entity.TransferStatus) ([]*entity.Transfer, error)
}
