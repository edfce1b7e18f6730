package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ventas-api/internal/application/dto"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// writeError traduce los errores de dominio al cuerpo dto.ErrorResponse con su código HTTP.
// Lo no reconocido es 500 y se registra; el detalle interno no sale al cliente.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var (
		validation   *domain.ValidationError
		insufficient *domain.InsufficientStockError
		notFound     *domain.ProductNotFoundError
		transition   *domain.InvalidTransitionError
	)
	switch {
	case errors.As(err, &validation):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "VALIDATION",
			Message: validation.Error(),
			Details: map[string]any{"field": validation.Field},
		})
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: insufficient.Error(),
			Details: map[string]any{
				"product_id": insufficient.ProductID,
				"requested":  insufficient.Requested,
				"available":  insufficient.Available,
			},
		})
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Code:    "PRODUCT_NOT_FOUND",
			Message: notFound.Error(),
			Details: map[string]any{"product_id": notFound.ProductID},
		})
	case errors.As(err, &transition):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INVALID_TRANSITION",
			Message: transition.Error(),
			Details: map[string]any{"from": transition.From, "to": transition.To},
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: err.Error()})
	}
	log.Error().Err(err).Str("path", c.Path()).Str("request_id", requestID(c)).Msg("error no controlado")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}
