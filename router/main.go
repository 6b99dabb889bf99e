package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sahilchouksey/study-notes-bot/database"
	"github.com/sahilchouksey/study-notes-bot/handlers"
	admin_handlers "github.com/sahilchouksey/study-notes-bot/handlers/admin"
	publish_handlers "github.com/sahilchouksey/study-notes-bot/handlers/publish"
	webhook_handlers "github.com/sahilchouksey/study-notes-bot/handlers/webhook"
	"github.com/sahilchouksey/study-notes-bot/utils/logger"
	"github.com/sahilchouksey/study-notes-bot/utils/middleware"
)

// WebhookPath receives updates pushed by Telegram. It is authenticated by the
// secret header and exempt from the per-IP rate limit.
const WebhookPath = "/telegram/webhook"

// Dependencies are the collaborators the HTTP routes need
type Dependencies struct {
	Store     database.Storage
	Notifier  publish_handlers.Notifier
	Documents publish_handlers.DocumentFinder

	// Dispatcher is nil unless updates arrive by webhook
	Dispatcher    webhook_handlers.UpdateDispatcher
	WebhookSecret string

	AdminToken string
	BruteForce *middleware.BruteForceProtection
	Log        *logger.Logger
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	store := deps.Store

	app.Get("/health", handlers.HandleCheckHealth(store))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	if deps.Dispatcher != nil {
		webhookHandler := webhook_handlers.NewWebhookHandler(deps.WebhookSecret, deps.Dispatcher, deps.Log)
		app.Post(WebhookPath, webhookHandler.HandleUpdate)
	}

	api := app.Group("/api/v1")
	requireAdmin := middleware.RequireAdminToken(deps.AdminToken, deps.BruteForce)

	// Publish events from the admin panel
	publishHandler := publish_handlers.NewPublishHandler(deps.Notifier, deps.Documents, deps.Log)
	documents := api.Group("/documents", requireAdmin)
	documents.Post("/:id/published", publishHandler.HandleDocumentPublished)

	// Operator endpoints
	admin := api.Group("/admin", requireAdmin)
	admin.Get("/users", func(c *fiber.Ctx) error {
		return admin_handlers.ListUsers(c, store)
	})
	admin.Put("/users/:id/block", func(c *fiber.Ctx) error {
		return admin_handlers.SetUserBlocked(c, store)
	})
}
