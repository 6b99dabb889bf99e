package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/study-notes-bot/database"
	"github.com/sahilchouksey/study-notes-bot/utils/response"
)

// HandleCheckHealth handles GET /health
func HandleCheckHealth(store database.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := store.HealthCheck(); err != nil {
			return response.ServiceUnavailable(c, "Database unreachable")
		}
		return response.Success(c, fiber.Map{"status": "ok"})
	}
}
