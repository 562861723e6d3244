package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// EscalationRepository registro de escalamientos entregados al gestor de tareas.
type EscalationRepository interface {
	Create(ctx context.Context, escalation *entity.Escalation) error
	GetByID(ctx context.Context, id string) (*entity.Escalation, error)
}
