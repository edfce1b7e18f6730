package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// AlertHandler historial de alertas de stock bajo.
type AlertHandler struct {
	uc  *inventory.LowStockUseCase
	log *logger.Logger
}

// NewAlertHandler construye el handler.
func NewAlertHandler(uc *inventory.LowStockUseCase, log *logger.Logger) *AlertHandler {
	return &AlertHandler{uc: uc, log: log}
}

// List godoc
// @Summary      Listar alertas de stock
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "active | cleared"
// @Success      200     {array}   dto.StockAlertResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Router       /api/alerts [get]
func (h *AlertHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.ListAlerts(c.UserContext(), c.Query("status"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
