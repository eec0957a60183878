// Package server builds the fiber app shared by the binary and the
// end-to-end tests.
package server

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func New() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      "jobtracker",
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: ErrorHandler,
	})
}

// UseDefaults installs the global middleware chain.
func UseDefaults(app *fiber.App, cfg *config.Config) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())
}

func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{
		Error:   true,
		Message: message,
	})
}
