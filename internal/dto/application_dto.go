package dto

import "github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/models"

// UpdateApplicationRequest carries a partial update; nil fields are left
// untouched. id and createdAt cannot be changed.
type UpdateApplicationRequest struct {
	Company     *string `json:"company"`
	Position    *string `json:"position"`
	Location    *string `json:"location"`
	Salary      *string `json:"salary"`
	JobURL      *string `json:"jobUrl"`
	Description *string `json:"description"`
	AppliedDate *string `json:"appliedDate"`
	Status      *string `json:"status"`
	Notes       *string `json:"notes"`
}

type SyncRequest struct {
	Applications []map[string]interface{} `json:"applications"`
}

type SyncResponse struct {
	Missing  []models.Application `json:"missing"`
	Admitted []models.Application `json:"admitted"`
	// Replaced maps a client-side id to the id the server assigned on
	// admission, so the client can swap its cached copy.
	Replaced      map[string]string `json:"replaced"`
	AdmittedCount int               `json:"admittedCount"`
	SkippedCount  int               `json:"skippedCount"`
}

type DeleteResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	DB          string `json:"db"`
	RecordCount int64  `json:"recordCount"`
	Observers   int    `json:"observers"`
}
