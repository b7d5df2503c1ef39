package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/siserv-tech/driverbot-backend/internal/handlers"
)

// Handlers groups everything the router mounts
type Handlers struct {
	WhatsApp     *handlers.WhatsAppHandler
	Health       *handlers.HealthHandler
	Registration *handlers.RegistrationHandler
	Occurrence   *handlers.OccurrenceHandler
}

// SetupRoutes configures all API routes. Development mode adds the
// /test/whatsapp simulator.
func SetupRoutes(app *fiber.App, h Handlers, development bool) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "DriverBot Backend",
			"endpoints": fiber.Map{
				"health":          "/health",
				"webhook":         "/webhook/whatsapp",
				"precadastro":     "/precadastro",
				"cadastroveiculo": "/cadastroveiculo",
				"ocorrencia":      "/ocorrencia",
			},
		})
	})

	app.Get("/health", h.Health.Check)

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")
	webhooks.Post("/whatsapp", h.WhatsApp.HandleWebhook)

	// ========== TENANT API ==========
	app.Post("/precadastro", h.Registration.Person)
	app.Post("/cadastroveiculo", h.Registration.Vehicle)
	app.Post("/ocorrencia", h.Occurrence.Create)

	// ========== TEST ROUTES (Development Only) ==========
	if development {
		app.Post("/test/whatsapp", h.WhatsApp.HandleTestWebhook)
		log.Warn().Msg("⚠️  /test/whatsapp enabled for development")
	}
}
