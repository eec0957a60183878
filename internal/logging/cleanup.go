package logging

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// StartCleanup schedules a daily purge of system_logs older than
// retentionDays. Stop the returned scheduler on shutdown.
func StartCleanup(db *gorm.DB, retentionDays int) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc("@daily", func() { PurgeLogs(db, retentionDays, time.Now()) }); err != nil {
		return nil, fmt.Errorf("schedule log cleanup: %w", err)
	}
	c.Start()
	return c, nil
}

// PurgeLogs deletes system_logs with a timestamp before now minus the
// retention window and reports how many rows went.
func PurgeLogs(db *gorm.DB, retentionDays int, now time.Time) int64 {
	cutoff := now.UTC().AddDate(0, 0, -retentionDays)
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		slog.Warn("log cleanup failed", "error", result.Error)
		return 0
	}
	if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "deleted", result.RowsAffected)
	}
	return result.RowsAffected
}
