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

	"github.com/tripoloni/epi-manager-api/internal/application/auth"
	"github.com/tripoloni/epi-manager-api/internal/application/ledger"
	"github.com/tripoloni/epi-manager-api/internal/application/refdata"
	"github.com/tripoloni/epi-manager-api/internal/infrastructure/notify"
	"github.com/tripoloni/epi-manager-api/internal/infrastructure/sheetfile"
	httpRouter "github.com/tripoloni/epi-manager-api/internal/interfaces/http"
	"github.com/tripoloni/epi-manager-api/pkg/config"
	"github.com/tripoloni/epi-manager-api/pkg/logger"
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
		Msg("iniciando servidor de planillas")

	sheets, err := sheetfile.New(cfg.Store.DataDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacén de planillas")
	}
	signatures, err := sheetfile.NewSignatureStore(cfg.Store.SignatureDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacén de firmas")
	}
	notifier := notify.NewAdminNotifier(cfg.Notify.AdminEmail, log)

	processor := ledger.NewProcessor(sheets, signatures, log)
	refdataUC := refdata.NewUseCase(sheets, cfg.Store.RegistrySheetID, log)
	authUC := auth.NewUseCase(sheets, notifier, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "EPI Manager API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		RefData:   refdataUC,
		Processor: processor,
		AuthUC:    authUC,
		Log:       log,
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
