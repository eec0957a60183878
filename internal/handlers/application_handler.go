package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ApplicationHandler struct {
	service *services.ApplicationService
}

func NewApplicationHandler(service *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

func (h *ApplicationHandler) List(c *fiber.Ctx) error {
	apps, err := h.service.List(c.UserContext())
	if err != nil {
		return h.fail(c, err, "Failed to fetch applications")
	}
	return c.JSON(apps)
}

func (h *ApplicationHandler) Get(c *fiber.Ctx) error {
	app, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err, "Failed to fetch application")
	}
	return c.JSON(app)
}

func (h *ApplicationHandler) Create(c *fiber.Ctx) error {
	var payload map[string]interface{}
	if err := json.Unmarshal(c.Body(), &payload); err != nil || payload == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	app, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		return h.fail(c, err, "Failed to create application")
	}
	return c.Status(fiber.StatusCreated).JSON(app)
}

func (h *ApplicationHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	app, err := h.service.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return h.fail(c, err, "Failed to update application")
	}
	return c.JSON(app)
}

func (h *ApplicationHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return h.fail(c, err, "Failed to delete application")
	}
	return c.JSON(dto.DeleteResponse{Message: "Application deleted", ID: id})
}

// Sync accepts either {"applications": [...]} or a bare JSON array.
func (h *ApplicationHandler) Sync(c *fiber.Ctx) error {
	body := bytes.TrimSpace(c.Body())

	var snapshot []map[string]interface{}
	var err error
	if bytes.HasPrefix(body, []byte("[")) {
		err = json.Unmarshal(body, &snapshot)
	} else {
		var req dto.SyncRequest
		err = json.Unmarshal(body, &req)
		snapshot = req.Applications
	}
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid sync payload",
		})
	}
	if snapshot == nil {
		snapshot = []map[string]interface{}{}
	}

	resp, err := h.service.Sync(c.UserContext(), snapshot)
	if err != nil {
		return h.fail(c, err, "Failed to sync applications")
	}
	return c.JSON(resp)
}

func (h *ApplicationHandler) fail(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: strings.TrimPrefix(err.Error(), services.ErrValidation.Error()+": "),
		})
	case errors.Is(err, services.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrStoreUnavailable):
		slog.Error("store call failed",
			"method", c.Method(), "path", c.Path(),
			"request_id", requestID(c), "error", err.Error())
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error: true, Message: "Store unavailable, try again later",
		})
	}
	slog.Error("unhandled application error", "path", c.Path(), "request_id", requestID(c), "error", err.Error())
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: fallback,
	})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
