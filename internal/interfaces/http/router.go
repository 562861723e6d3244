package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
)

// RouterDeps dependencias del servidor de operación.
type RouterDeps struct {
	AppName   string
	Alerts    *inventory.AlertUseCase
	Transfers *inventory.TransferUseCase
	Audit     *inventory.AuditUseCase
	Metrics   nethttp.Handler // nil desactiva /metrics
}

// Router registra las rutas de operación: salud, métricas y diagnóstico de solo lectura del ledger.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	ops := app.Group("/ops")
	h := NewOpsHandler(deps.Alerts, deps.Transfers, deps.Audit)
	ops.Get("/records/:id/verify", h.VerifyRecord)
	ops.Get("/transfers/overdue", h.OverdueTransfers)
	ops.Get("/stores/:id/alerts/low-stock", h.LowStockAlerts)
	ops.Get("/stores/:id/alerts/expiry", h.ExpiryAlerts)
}
