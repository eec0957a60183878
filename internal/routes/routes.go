package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/handlers"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	applicationHandler *handlers.ApplicationHandler,
	healthHandler *handlers.HealthHandler,
	wsHandler *handlers.WSHandler,
) {
	api := app.Group("/api")

	// Per-IP sliding window; sync-heavy clients need some headroom.
	api.Use(limiter.New(limiter.Config{
		Max:               cfg.RateLimitPerMinute,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	applications := api.Group("/applications")
	applications.Get("/", applicationHandler.List)
	applications.Post("/", applicationHandler.Create)
	applications.Post("/sync", applicationHandler.Sync)
	applications.Get("/:id", applicationHandler.Get)
	applications.Put("/:id", applicationHandler.Update)
	applications.Patch("/:id", applicationHandler.Update)
	applications.Delete("/:id", applicationHandler.Delete)

	// Push channel
	app.Get("/ws", wsHandler.Upgrade, wsHandler.Handle())
}
