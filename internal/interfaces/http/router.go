package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/sales"
	"github.com/jhoicas/Ventas-api/internal/application/usecase"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC   *usecase.ProductUseCase
	LowStockUC  *inventory.LowStockUseCase
	SaleBuilder *sales.SaleBuilder
	Lifecycle   *sales.Lifecycle
	StatsUC     *sales.StatsUseCase
	JWTSecret   string
	Log         *logger.Logger
}

// Router registra las rutas de la API. Todo /api requiere Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Products: /lowstock antes de /:id
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.LowStockUC, deps.Log)
	products.Get("/lowstock", productHandler.LowStock)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Post("/:id/restock", productHandler.Restock)

	// Sales: /stats antes de /:id
	salesGroup := api.Group("/sales")
	saleHandler := NewSaleHandler(deps.SaleBuilder, deps.Lifecycle, deps.StatsUC, deps.Log)
	salesGroup.Get("/stats", saleHandler.Stats)
	salesGroup.Post("/", saleHandler.Create)
	salesGroup.Get("/", saleHandler.List)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Put("/:id/accept", saleHandler.Accept)
	salesGroup.Put("/:id/complete", saleHandler.Complete)
	salesGroup.Delete("/:id", saleHandler.Cancel)

	// Alerts
	alertHandler := NewAlertHandler(deps.LowStockUC, deps.Log)
	api.Get("/alerts", alertHandler.List)
}
