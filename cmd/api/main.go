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

	"github.com/jhoicas/logistica-api/internal/application/loads"
	"github.com/jhoicas/logistica-api/internal/application/shipping"
	"github.com/jhoicas/logistica-api/internal/domain/barcode"
	"github.com/jhoicas/logistica-api/internal/domain/guide"
	"github.com/jhoicas/logistica-api/internal/domain/repository"
	"github.com/jhoicas/logistica-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/logistica-api/internal/infrastructure/pdf"
	"github.com/jhoicas/logistica-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/logistica-api/internal/interfaces/http"
	"github.com/jhoicas/logistica-api/pkg/config"
	"github.com/jhoicas/logistica-api/pkg/logger"
)

// txRunner une los dos puertos transaccionales; ambos adaptadores los implementan.
type txRunner interface {
	loads.TxRunner
	shipping.TxRunner
}

// storage repositorios fuera de transacción más el runner.
type storage struct {
	tx        txRunner
	loads     repository.LoadRepository
	units     repository.UnitRepository
	shipments repository.ShipmentRepository
	clients   repository.ClientRepository
	suppliers repository.SupplierRepository
	close     func()
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

	guides := guide.NewGenerator(nil)
	materializer := loads.NewUnitMaterializer(st.tx, barcode.NewGenerator(), log.Component("materializer"))
	labels := infrapdf.NewLabelGenerator(cfg.Labels.WidthMM, cfg.Labels.HeightMM)

	loadUC := loads.NewLoadUseCase(st.tx, st.loads, st.units, st.clients, st.suppliers, materializer, labels)
	shipmentUC := shipping.NewShipmentUseCase(st.tx, st.shipments, st.units, guides, log.Component("shipments"))
	deliveryUC := shipping.NewDeliveryUseCase(st.tx, st.shipments, log.Component("delivery"))
	intakeUC := shipping.NewIntakeUseCase(st.tx, guides, log.Component("intake"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI: http://localhost:<port>/docs
	if cfg.HTTP.SwaggerFile != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.HTTP.SwaggerFile,
			Path:     "docs",
			Title:    "Logística API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		LoadUC:     loadUC,
		ShipmentUC: shipmentUC,
		DeliveryUC: deliveryUC,
		IntakeUC:   intakeUC,
		JWTSecret:  cfg.JWT.Secret,
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

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		store := memory.NewStore()
		store.SeedDemo()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return &storage{
			tx:        memory.NewTxRunner(store),
			loads:     memory.NewLoadRepository(store),
			units:     memory.NewUnitRepository(store),
			shipments: memory.NewShipmentRepository(store),
			clients:   memory.NewClientRepository(store),
			suppliers: memory.NewSupplierRepository(store),
			close:     func() {},
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
		log.Info().Msg("migraciones aplicadas")
	}
	return &storage{
		tx:        postgres.NewTxRunner(pool),
		loads:     postgres.NewLoadRepository(pool),
		units:     postgres.NewUnitRepository(pool),
		shipments: postgres.NewShipmentRepository(pool),
		clients:   postgres.NewClientRepository(pool),
		suppliers: postgres.NewSupplierRepository(pool),
		close:     pool.Close,
	}, nil
}
