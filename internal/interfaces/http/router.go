package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/zzp-facturatie-api/internal/application/analytics"
	"github.com/jhoicas/zzp-facturatie-api/internal/application/auth"
	"github.com/jhoicas/zzp-facturatie-api/internal/application/billing"
	"github.com/jhoicas/zzp-facturatie-api/internal/application/portal"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	ClientUC       *billing.ClientUseCase
	InvoiceUC      *billing.InvoiceUseCase
	RecurringUC    *billing.RecurringUseCase
	AccessTokenUC  *portal.AccessTokenUseCase
	PortalUC       *portal.UseCase
	DashboardUC    *appanalytics.DashboardUseCase
	GenerationRun  GenerationRunner
	OverdueRun     OverdueRunner
	Notifier       billing.Notifier
	JWTSecret      string
	CronSecret     string
	DispatchSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Portal de clientes (público; token opaco en el body)
	api.Post("/portal", NewPortalHandler(deps.PortalUC).Handle)

	// Máquina a máquina (shared secret)
	cron := api.Group("/cron", RequireSharedSecret(deps.CronSecret, "CRON_SECRET"))
	cronHandler := NewCronHandler(deps.GenerationRun, deps.OverdueRun)
	cron.Post("/generate-recurring", cronHandler.GenerateRecurring)
	cron.Post("/overdue-sweep", cronHandler.OverdueSweep)

	api.Post("/notifications/send",
		RequireSharedSecret(deps.DispatchSecret, "MAILER_DISPATCH_SECRET"),
		NewNotificationHandler(deps.Notifier).Send,
	)

	// Rutas protegidas (requieren Bearer Token del contractor)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	protected.Get("/dashboard", NewDashboardHandler(deps.DashboardUC).GetSummary)

	settings := protected.Group("/settings")
	settings.Get("/preferences", authHandler.GetPreferences)
	settings.Put("/preferences", RequireRole(entity.RoleOwner), authHandler.UpdatePreferences)

	// Clientes y tokens del portal
	clients := protected.Group("/clients")
	clientHandler := NewClientHandler(deps.ClientUC, deps.AccessTokenUC)
	clients.Post("/", clientHandler.Create)
	clients.Get("/", clientHandler.List)
	clients.Get("/:id", clientHandler.GetByID)
	clients.Post("/:id/access-tokens", RequireRole(entity.RoleOwner), clientHandler.CreateAccessToken)
	clients.Get("/:id/access-tokens", clientHandler.ListAccessTokens)
	protected.Delete("/access-tokens/:id", RequireRole(entity.RoleOwner), clientHandler.RevokeAccessToken)

	// Facturas
	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC)
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Put("/:id", invoiceHandler.Update)
	invoices.Post("/:id/send", invoiceHandler.Send)
	invoices.Post("/:id/pay", invoiceHandler.MarkPaid)
	invoices.Post("/:id/cancel", RequireRole(entity.RoleOwner), invoiceHandler.Cancel)
	invoices.Get("/:id/history", invoiceHandler.History)
	invoices.Get("/:id/pdf", invoiceHandler.DownloadPDF)
	invoices.Get("/:id/ubl", invoiceHandler.ExportUBL)

	// Recurrentes y plantillas
	recurringHandler := NewRecurringHandler(deps.RecurringUC)
	recurring := protected.Group("/recurring-invoices")
	recurring.Post("/", recurringHandler.Create)
	recurring.Get("/", recurringHandler.List)
	recurring.Get("/:id", recurringHandler.GetByID)
	recurring.Patch("/:id", recurringHandler.Update)
	recurring.Post("/:id/pause", recurringHandler.Pause)
	recurring.Post("/:id/resume", recurringHandler.Resume)

	templates := protected.Group("/invoice-templates")
	templates.Post("/", recurringHandler.CreateTemplate)
	templates.Get("/", recurringHandler.ListTemplates)
}
