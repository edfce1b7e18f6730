package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/Ventas-api/internal/application/inventory"
	"github.com/jhoicas/Ventas-api/internal/application/sales"
	"github.com/jhoicas/Ventas-api/internal/application/usecase"
	"github.com/jhoicas/Ventas-api/internal/domain/repository"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/memory"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/messaging"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/migration"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Ventas-api/internal/interfaces/http"
	"github.com/jhoicas/Ventas-api/pkg/config"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

// txRunner lo cumplen los runners de memoria y de PostgreSQL.
type txRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Str("workflow", cfg.Sales.DefaultWorkflow).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		runner     txRunner
		repos      repository.Repos
		reportRepo repository.SalesReportRepository
	)
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		store := memory.NewStore()
		runner = memory.NewTxRunner(store)
		repos = store.Repos()
		reportRepo = memory.NewSalesReportRepository(store)
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
	default:
		if cfg.DB.MigrateOnStart {
			runMigrations(cfg.DB, log)
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		runner = postgres.NewTxRunner(pool)
		repos = postgres.NewRepos(pool)
		reportRepo = postgres.NewSalesReportRepository(pool)
	}

	notifier := inventory.MultiNotifier{inventory.NewLogNotifier(log.Component("alerts"))}
	if cfg.Redis.Enabled() {
		publisher, err := messaging.NewRedisAlertPublisher(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer publisher.Close()
		notifier = append(notifier, publisher)
		log.Info().Str("channel", cfg.Redis.AlertsChannel).Msg("alertas de stock publicadas en Redis")
	}

	emitter := inventory.NewAlertEmitter()
	ledger := inventory.NewStockLedger(runner, emitter, notifier, log.Component("ledger"))
	builder := sales.NewSaleBuilder(runner, ledger, cfg.Sales.DefaultWorkflow, log.Component("sales"))
	lifecycle := sales.NewLifecycle(runner, ledger, builder, repos.Invoices, log.Component("sales"))
	statsUC := sales.NewStatsUseCase(reportRepo, repos.Products)
	productUC := usecase.NewProductUseCase(runner, repos.Products, emitter, ledger)
	lowStockUC := inventory.NewLowStockUseCase(repos.Products, repos.Alerts)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI en http://localhost:<port>/docs si existe docs/swagger.json.
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Ventas API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Store.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:   productUC,
		LowStockUC:  lowStockUC,
		SaleBuilder: builder,
		Lifecycle:   lifecycle,
		StatsUC:     statsUC,
		JWTSecret:   cfg.JWT.Secret,
		Log:         log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func runMigrations(cfg config.DBConfig, log *logger.Logger) {
	m, err := migration.New(cfg.ConnectionString(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("preparar migraciones")
	}
	defer m.Close()
	if err := m.Up(); err != nil {
		log.Fatal().Err(err).Msg("aplicar migraciones")
	}
}
