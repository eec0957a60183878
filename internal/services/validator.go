package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/normalize"
)

const dateLayout = "2006-01-02"

// ValidateRecord turns an untrusted payload into a canonical application.
// ID and timestamps are left for the caller to assign.
func ValidateRecord(payload map[string]interface{}, now time.Time) (models.Application, error) {
	app := models.Application{
		Company:     textField(payload, "company"),
		Position:    textField(payload, "position"),
		Location:    textField(payload, "location"),
		Salary:      textField(payload, "salary"),
		JobURL:      textField(payload, "jobUrl"),
		Description: normalize.Description(textField(payload, "description")),
		AppliedDate: appliedDate(textField(payload, "appliedDate"), now),
		Status:      textField(payload, "status"),
		Notes:       textField(payload, "notes"),
	}

	if app.Status == "" {
		app.Status = models.DefaultStatus
	}
	if app.Company == "" && app.Position == "" {
		return models.Application{}, fmt.Errorf("%w: company or position is required", ErrValidation)
	}
	return app, nil
}

func textField(payload map[string]interface{}, key string) string {
	switch v := payload[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func appliedDate(raw string, now time.Time) string {
	if raw == "" {
		return now.UTC().Format(dateLayout)
	}
	return calendarDate(raw)
}

// calendarDate reduces an RFC3339 timestamp to its UTC date. Anything else
// is kept as given.
func calendarDate(raw string) string {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC().Format(dateLayout)
	}
	return raw
}
