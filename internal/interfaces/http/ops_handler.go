package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
)

// OpsHandler consultas de diagnóstico para operación (no expone mutaciones del ledger).
type OpsHandler struct {
	alerts    *inventory.AlertUseCase
	transfers *inventory.TransferUseCase
	audit     *inventory.AuditUseCase
}

// NewOpsHandler construye el handler.
func NewOpsHandler(alerts *inventory.AlertUseCase, transfers *inventory.TransferUseCase, audit *inventory.AuditUseCase) *OpsHandler {
	return &OpsHandler{alerts: alerts, transfers: transfers, audit: audit}
}

// VerifyRecord recomputa un registro desde sus movimientos.
// GET /ops/records/:id/verify
func (h *OpsHandler) VerifyRecord(c *fiber.Ctx) error {
	check, err := h.audit.VerifyRecord(c.Context(), c.Params("id"))
	return respond(c, check, err)
}

// OverdueTransfers traslados enviados fuera de SLA.
// GET /ops/transfers/overdue
func (h *OpsHandler) OverdueTransfers(c *fiber.Ctx) error {
	list, err := h.alerts.OverdueTransferAlerts(c.Context(), h.transfers)
	return respond(c, list, err)
}

// LowStockAlerts productos en o bajo el mínimo de su categoría.
// GET /ops/stores/:id/alerts/low-stock
func (h *OpsHandler) LowStockAlerts(c *fiber.Ctx) error {
	list, err := h.alerts.LowStockAlerts(c.Context(), c.Params("id"))
	return respond(c, list, err)
}

// ExpiryAlerts registros próximos a vencer. ?days= sobrescribe la ventana configurada.
// GET /ops/stores/:id/alerts/expiry
func (h *OpsHandler) ExpiryAlerts(c *fiber.Ctx) error {
	list, err := h.alerts.ExpiryAlerts(c.Context(), c.Params("id"), c.QueryInt("days", 0))
	return respond(c, list, err)
}

// respond serializa el resultado explícito con el status HTTP que corresponde a su código.
func respond(c *fiber.Ctx, data any, err error) error {
	out := dto.OutcomeFromError(data, err)
	return c.Status(statusFor(out.Code)).JSON(out)
}

func statusFor(code string) int {
	switch code {
	case dto.CodeOK:
		return fiber.StatusOK
	case dto.CodeValidation:
		return fiber.StatusBadRequest
	case dto.CodeNotFound:
		return fiber.StatusNotFound
	case dto.CodeInsufficientStock, dto.CodeInvalidState, dto.CodeConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
