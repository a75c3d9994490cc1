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

	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/analytics"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/batches"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/clients"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/finance"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/sales"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/application/stock"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/domain/repository"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/infrastructure/audit"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/infrastructure/memory"
	infmongo "github.com/tportooliveira-alt/frigogest-2026-sub002/internal/infrastructure/mongo"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/internal/infrastructure/postgres"
	httpRouter "github.com/tportooliveira-alt/frigogest-2026-sub002/internal/interfaces/http"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/pkg/config"
	"github.com/tportooliveira-alt/frigogest-2026-sub002/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("carregar configuração: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicação")

	ctx := context.Background()

	var store repository.LedgerStore
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexão ao PostgreSQL")
		}
		defer pool.Close()
		pg := postgres.New(pool)
		if err := pg.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("migração da tabela de documentos")
		}
		store = pg
	case config.DriverMongo:
		mg, err := infmongo.Connect(ctx, cfg.Mongo)
		if err != nil {
			log.Fatal().Err(err).Msg("conexão ao MongoDB")
		}
		defer func() { _ = mg.Close(context.Background()) }()
		store = mg
	default:
		store = memory.New()
		log.Warn().Msg("store em memória: dados não sobrevivem ao restart")
	}

	auditSink := audit.NewStoreSink(store, log)

	batchUC := batches.New(store, auditSink, log)
	stockUC := stock.New(store, log)
	saleUC := sales.New(store, auditSink, log)
	financeUC := finance.New(store, auditSink, log)
	clientUC := clients.New(store, auditSink, log)
	analyticsUC := analytics.New(store, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "FrigoGest API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		BatchUC:     batchUC,
		StockUC:     stockUC,
		SaleUC:      saleUC,
		FinanceUC:   financeUC,
		ClientUC:    clientUC,
		AnalyticsUC: analyticsUC,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("sinal de desligamento recebido, encerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("desligamento do servidor")
	}

	log.Info().Msg("aplicação encerrada")
}
