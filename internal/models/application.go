package models

import (
	"strings"
	"time"
)

const DefaultStatus = "Applied"

// Application is a single tracked job application. Clients cache these
// documents verbatim, so the JSON layout is part of the sync contract.
type Application struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Company     string    `gorm:"size:255" json:"company"`
	Position    string    `gorm:"size:255" json:"position"`
	Location    string    `gorm:"size:255" json:"location"`
	Salary      string    `gorm:"size:255" json:"salary"`
	JobURL      string    `gorm:"column:job_url;type:text" json:"jobUrl"`
	Description string    `gorm:"type:text" json:"description"`
	AppliedDate string    `gorm:"size:10" json:"appliedDate"`
	Status      string    `gorm:"size:100;not null;default:'Applied'" json:"status"`
	Notes       string    `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null" json:"updatedAt"`

	// Case-folded copies of Company and Position, maintained by the store.
	// Identity lookups match on these so folding never depends on the
	// database's collation.
	CompanyKey  string `gorm:"size:255;index:idx_applications_identity" json:"-"`
	PositionKey string `gorm:"size:255;index:idx_applications_identity" json:"-"`
}

func (Application) TableName() string {
	return "applications"
}

// IdentityKey folds a company or position for identity comparison.
func IdentityKey(s string) string {
	return strings.ToLower(s)
}

// SetIdentityKeys refreshes CompanyKey and PositionKey.
func (a *Application) SetIdentityKeys() {
	a.CompanyKey = IdentityKey(a.Company)
	a.PositionKey = IdentityKey(a.Position)
}
