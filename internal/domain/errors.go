package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Los casos de uso los envuelven con contexto (fmt.Errorf("%w: ...")); comparar con errors.Is.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrInvalidState      = errors.New("operación no permitida en el estado actual")
)
