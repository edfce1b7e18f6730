package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/sales"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// SaleHandler ventas: creación, ciclo de vida, listado y estadísticas (protegido).
type SaleHandler struct {
	builder   *sales.SaleBuilder
	lifecycle *sales.Lifecycle
	stats     *sales.StatsUseCase
	log       *logger.Logger
}

// NewSaleHandler construye el handler.
func NewSaleHandler(builder *sales.SaleBuilder, lifecycle *sales.Lifecycle, stats *sales.StatsUseCase, log *logger.Logger) *SaleHandler {
	return &SaleHandler{builder: builder, lifecycle: lifecycle, stats: stats, log: log}
}

// Create godoc
// @Summary      Registrar una venta (reserva el stock y emite la factura)
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "Canasta"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse  "VALIDATION o INSUFFICIENT_STOCK"
// @Failure      404   {object}  dto.ErrorResponse  "PRODUCT_NOT_FOUND"
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if err := bindJSON(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	items := make([]inventory.ReservationRequest, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, inventory.ReservationRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	inv, err := h.builder.BuildSale(c.UserContext(), sales.SaleInput{
		Items:         items,
		TaxCents:      in.Tax,
		PaymentMethod: in.PaymentMethod,
		Notes:         in.Notes,
		CashierID:     GetUserID(c),
		Workflow:      in.Workflow,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToInvoiceResponse(inv))
}

// GetByID godoc
// @Summary      Obtener venta con sus líneas
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	inv, err := h.lifecycle.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToInvoiceResponse(inv))
}

// List godoc
// @Summary      Listar ventas (más recientes primero)
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "PENDING | ACCEPTED | COMPLETED | CANCELLED"
// @Param        from    query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        to      query  string  false  "Hasta (RFC3339 o YYYY-MM-DD, inclusive por día)"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.InvoiceListResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Router       /api/sales [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	from, err := queryTime(c, "from", false)
	if err != nil {
		return writeError(c, h.log, err)
	}
	to, err := queryTime(c, "to", true)
	if err != nil {
		return writeError(c, h.log, err)
	}
	limit, offset := page(c)
	list, total, err := h.lifecycle.List(c.UserContext(), repository.InvoiceFilter{
		Status: entity.InvoiceStatus(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
		From:   from,
		To:     to,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.InvoiceListResponse{
		Items: make([]dto.InvoiceResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Total: total},
	}
	for _, inv := range list {
		out.Items = append(out.Items, dto.ToInvoiceResponse(inv))
	}
	return c.JSON(out)
}

// Stats godoc
// @Summary      Estadísticas de ventas no canceladas
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  false  "Desde (por defecto: 30 días antes de to)"
// @Param        to    query  string  false  "Hasta (por defecto: ahora)"
// @Success      200   {object}  dto.SalesStatsResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/sales/stats [get]
func (h *SaleHandler) Stats(c *fiber.Ctx) error {
	from, err := queryTime(c, "from", false)
	if err != nil {
		return writeError(c, h.log, err)
	}
	to, err := queryTime(c, "to", true)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.stats.Stats(c.UserContext(), from, to)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Accept godoc
// @Summary      Aceptar venta pendiente
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse  "INVALID_TRANSITION"
// @Router       /api/sales/{id}/accept [put]
func (h *SaleHandler) Accept(c *fiber.Ctx) error {
	inv, err := h.lifecycle.Accept(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToInvoiceResponse(inv))
}

// Complete godoc
// @Summary      Completar venta aceptada
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse  "INVALID_TRANSITION"
// @Router       /api/sales/{id}/complete [put]
func (h *SaleHandler) Complete(c *fiber.Ctx) error {
	inv, err := h.lifecycle.Complete(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToInvoiceResponse(inv))
}

// Cancel godoc
// @Summary      Cancelar venta y devolver el stock
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse  "INVALID_TRANSITION"
// @Router       /api/sales/{id} [delete]
func (h *SaleHandler) Cancel(c *fiber.Ctx) error {
	inv, err := h.lifecycle.Cancel(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ToInvoiceResponse(inv))
}
