package dto

import (
	"errors"

	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// Códigos de resultado expuestos a los consumidores del ledger.
const (
	CodeOK                = "OK"
	CodeValidation        = "VALIDATION"
	CodeNotFound          = "NOT_FOUND"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeInvalidState      = "INVALID_STATE"
	CodeConflict          = "CONFLICT"
	CodeInternal          = "INTERNAL"
)

// ErrorResponse cuerpo de error.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OutcomeDTO resultado explícito de una operación: éxito o error con código.
type OutcomeDTO struct {
	Success bool           `json:"success"`
	Code    string         `json:"code"`
	Message string         `json:"message,omitempty"`
	Data    any            `json:"data,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
}

// Ok envuelve un resultado exitoso.
func Ok(data any) OutcomeDTO {
	return OutcomeDTO{Success: true, Code: CodeOK, Data: data}
}

// ErrorCode traduce un error de dominio a su código. Errores no reconocidos son INTERNAL.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, domain.ErrInvalidInput):
		return CodeValidation
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, domain.ErrInsufficientStock):
		return CodeInsufficientStock
	case errors.Is(err, domain.ErrInvalidState):
		return CodeInvalidState
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate):
		return CodeConflict
	default:
		return CodeInternal
	}
}

// OutcomeFromError construye el resultado a partir del valor y el error de un caso de uso.
// Los errores internos no exponen su detalle.
func OutcomeFromError(data any, err error) OutcomeDTO {
	if err == nil {
		return Ok(data)
	}
	code := ErrorCode(err)
	msg := err.Error()
	if code == CodeInternal {
		msg = "error interno"
	}
	return OutcomeDTO{
		Success: false,
		Code:    code,
		Message: msg,
		Error:   &ErrorResponse{Code: code, Message: msg},
	}
}
