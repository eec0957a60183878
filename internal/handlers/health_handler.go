package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type RecordCounter interface {
	Count(ctx context.Context) (int64, error)
}

type ObserverCounter interface {
	Count() int
}

type HealthHandler struct {
	db        Pinger
	records   RecordCounter
	observers ObserverCounter
}

func NewHealthHandler(db Pinger, records RecordCounter, observers ObserverCounter) *HealthHandler {
	return &HealthHandler{db: db, records: records, observers: observers}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx := c.UserContext()

	status := "ok"
	dbStatus := "ok"
	var count int64
	if err := h.db.Ping(ctx); err != nil {
		status = "degraded"
		dbStatus = "unhealthy: " + err.Error()
	} else if n, err := h.records.Count(ctx); err == nil {
		count = n
	} else {
		status = "degraded"
		dbStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:      status,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		DB:          dbStatus,
		RecordCount: count,
		Observers:   h.observers.Count(),
	})
}
