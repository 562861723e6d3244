package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// Códigos SQLSTATE que el ledger traduce a errores de dominio.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// insertError traduce el error de un INSERT: clave única repetida -> ErrDuplicate,
// serialización o deadlock -> ErrConflict; el resto se envuelve con op.
func insertError(err error, op, what string) error {
	switch pgCode(err) {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", domain.ErrDuplicate, what)
	case codeSerializationFailure, codeDeadlockDetected:
		return fmt.Errorf("%w: %s", domain.ErrConflict, what)
	}
	return fmt.Errorf("%s: %w", op, err)
}
