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

	appanalytics "github.com/jhoicas/zzp-facturatie-api/internal/application/analytics"
	"github.com/jhoicas/zzp-facturatie-api/internal/application/auth"
	"github.com/jhoicas/zzp-facturatie-api/internal/application/billing"
	"github.com/jhoicas/zzp-facturatie-api/internal/application/portal"
	"github.com/jhoicas/zzp-facturatie-api/internal/infrastructure/mailer"
	infrapdf "github.com/jhoicas/zzp-facturatie-api/internal/infrastructure/pdf"
	"github.com/jhoicas/zzp-facturatie-api/internal/infrastructure/postgres"
	"github.com/jhoicas/zzp-facturatie-api/internal/infrastructure/pwned"
	"github.com/jhoicas/zzp-facturatie-api/internal/infrastructure/ubl"
	httpRouter "github.com/jhoicas/zzp-facturatie-api/internal/interfaces/http"
	"github.com/jhoicas/zzp-facturatie-api/pkg/config"
	"github.com/jhoicas/zzp-facturatie-api/pkg/logger"
)

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
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	contractorRepo := postgres.NewContractorRepository(pool)
	clientRepo := postgres.NewClientRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	recurringRepo := postgres.NewRecurringInvoiceRepository(pool)
	templateRepo := postgres.NewTemplateRepository(pool)
	tokenRepo := postgres.NewAccessTokenRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	analyticsRepo := postgres.NewAnalyticsRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Notification Dispatcher sobre SMTP
	dispatcher := mailer.New(cfg.Mailer, cfg.App.Name, log.Component("mailer"))

	sweepCfg := billing.SweepConfig{
		ReminderWindowDays: cfg.Sweep.ReminderWindowDays,
		ItemTimeout:        cfg.Sweep.ItemTimeout,
		PublicURL:          cfg.App.PublicURL,
	}

	// Comprobación de contraseñas filtradas (HaveIBeenPwned); desactivable por env.
	var breach auth.BreachChecker
	if cfg.Pwned.Enabled {
		breach = pwned.NewClient(cfg.Pwned.BaseURL)
	}
	authUC := auth.NewAuthUseCase(txRunner, userRepo, contractorRepo, breach, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log.Component("auth"))

	invoiceUC := billing.NewInvoiceUseCase(
		txRunner, invoiceRepo, clientRepo, contractorRepo, auditRepo,
		dispatcher, infrapdf.NewMarotoPDFGenerator(), ubl.NewBuilder(),
		sweepCfg, log.Component("billing"),
	)
	generationSweep := billing.NewGenerationSweep(txRunner, recurringRepo, sweepCfg, log.Component("sweep"))
	overdueSweep := billing.NewOverdueSweep(
		txRunner, invoiceRepo, contractorRepo, clientRepo, auditRepo,
		dispatcher, sweepCfg, log.Component("sweep"),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60, // los barridos de cron responden al terminar
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "ZZP Facturatie API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		ClientUC:       billing.NewClientUseCase(clientRepo),
		InvoiceUC:      invoiceUC,
		RecurringUC:    billing.NewRecurringUseCase(recurringRepo, templateRepo, clientRepo),
		AccessTokenUC:  portal.NewAccessTokenUseCase(tokenRepo, clientRepo, cfg.App.PublicURL),
		PortalUC:       portal.NewUseCase(txRunner, tokenRepo, invoiceRepo, clientRepo, contractorRepo, log.Component("portal")),
		DashboardUC:    appanalytics.NewDashboardUseCase(analyticsRepo),
		GenerationRun:  generationSweep,
		OverdueRun:     overdueSweep,
		Notifier:       dispatcher,
		JWTSecret:      cfg.JWT.Secret,
		CronSecret:     cfg.Sweep.CronSecret,
		DispatchSecret: cfg.Mailer.DispatchSecret,
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
