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

	_ "github.com/loboISC/arrendamiento-sub002/docs"
	"github.com/loboISC/arrendamiento-sub002/internal/application/facturacion"
	infrapac "github.com/loboISC/arrendamiento-sub002/internal/infrastructure/pac"
	infrapdf "github.com/loboISC/arrendamiento-sub002/internal/infrastructure/pdf"
	"github.com/loboISC/arrendamiento-sub002/internal/infrastructure/postgres"
	httpRouter "github.com/loboISC/arrendamiento-sub002/internal/interfaces/http"
	"github.com/loboISC/arrendamiento-sub002/pkg/config"
	"github.com/loboISC/arrendamiento-sub002/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("emisor", cfg.Emisor.RFC).
		Str("pac_modo", cfg.PAC.Modo).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	facturaRepo := postgres.NewFacturaRepository(pool)
	clientePAC := infrapac.NewClient(cfg.PAC, log)
	renderizador := infrapdf.NewMarotoGenerator()

	facturacionSvc := facturacion.NewService(facturaRepo, clientePAC, renderizador, cfg, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 45, // el timbrado puede tardar hasta el timeout del PAC
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Facturación CFDI API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Facturacion: facturacionSvc,
		JWTSecret:   cfg.JWT.Secret,
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
