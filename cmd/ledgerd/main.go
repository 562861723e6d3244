package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/inventario-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventario-ledger/internal/scheduler"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// storage adaptador de persistencia elegido por STORAGE_DRIVER.
type storage struct {
	tx         inventory.TxRunner
	products   repository.ProductRepository
	stores     repository.StoreRepository
	categories repository.CategoryRepository
	close      func()
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
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.close()

	recorder := metrics.New(metrics.DefaultConfig(cfg.App.Name))
	pdfGenerator := infrapdf.NewMarotoPDFGenerator(cfg.App.Name)

	deps := inventory.Deps{
		Tx:         st.tx,
		Products:   st.products,
		Stores:     st.stores,
		Categories: st.categories,
		Log:        log.Named("ledger"),
		Metrics:    recorder,
		Settings: inventory.Settings{
			DefaultMinStock:   cfg.Ledger.DefaultMinStock,
			TransferSLA:       cfg.Ledger.TransferSLA(),
			ExpiryWarningDays: cfg.Ledger.ExpiryWarningDays,
		},
	}
	transferUC := inventory.NewTransferUseCase(deps, pdfGenerator)
	alertUC := inventory.NewAlertUseCase(deps)
	auditUC := inventory.NewAuditUseCase(deps)

	sched := scheduler.New(cfg.Scheduler, alertUC, transferUC, recorder, log.Named("scheduler"))
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("iniciar scheduler")
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ReadTimeout:           time.Second * 10,
		WriteTimeout:          time.Second * 10,
		IdleTimeout:           time.Second * 60,
		DisableStartupMessage: cfg.App.Env != "development",
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		AppName:   cfg.App.Name,
		Alerts:    alertUC,
		Transfers: transferUC,
		Audit:     auditUC,
		Metrics:   recorder.Handler(),
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

	sched.Stop(shutdownCtx)
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openStorage abre el adaptador configurado. En postgres aplica el esquema si STORAGE_MIGRATE está activo.
func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar y el catálogo inicia vacío")
		return &storage{
			tx:         memory.NewStore(),
			products:   memory.NewCatalog(),
			stores:     memory.NewStoreDirectory(),
			categories: memory.NewCategoryTable(),
			close:      func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.Storage.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("esquema aplicado")
	}
	return &storage{
		tx:         postgres.NewTxRunner(pool),
		products:   postgres.NewProductRepository(pool),
		stores:     postgres.NewStoreRepository(pool),
		categories: postgres.NewCategoryRepository(pool),
		close:      pool.Close,
	}, nil
}
