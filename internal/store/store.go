// Package store is the persistence collaborator for application records.
// It exposes single-row primitives only; every call is individually atomic.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/models"
	"gorm.io/gorm"
)

// ErrNoRecord is returned by FindOne when nothing matches the filter.
var ErrNoRecord = errors.New("record not found")

// Filter selects applications. Zero-valued fields are ignored; Company and
// Position match case-insensitively through the stored identity keys.
type Filter struct {
	ID       string
	Company  *string
	Position *string
}

// ByID is a shorthand for an id equality filter.
func ByID(id string) Filter {
	return Filter{ID: id}
}

// ByIdentity narrows to rows sharing the case-folded company/position pair.
func ByIdentity(company, position string) Filter {
	return Filter{Company: &company, Position: &position}
}

type Store struct {
	db      *gorm.DB
	timeout time.Duration
}

func New(db *gorm.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Store{db: db, timeout: timeout}
}

func (s *Store) scoped(ctx context.Context, f Filter) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	q := s.db.WithContext(ctx).Model(&models.Application{})
	if f.ID != "" {
		q = q.Where("id = ?", f.ID)
	}
	if f.Company != nil {
		q = q.Where("company_key = ?", models.IdentityKey(*f.Company))
	}
	if f.Position != nil {
		q = q.Where("position_key = ?", models.IdentityKey(*f.Position))
	}
	return q, cancel
}

// Find returns every matching row, newest first.
func (s *Store) Find(ctx context.Context, f Filter) ([]models.Application, error) {
	q, cancel := s.scoped(ctx, f)
	defer cancel()

	var apps []models.Application
	if err := q.Order("created_at DESC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (s *Store) FindOne(ctx context.Context, f Filter) (*models.Application, error) {
	q, cancel := s.scoped(ctx, f)
	defer cancel()

	var app models.Application
	if err := q.Take(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoRecord
		}
		return nil, err
	}
	return &app, nil
}

func (s *Store) InsertOne(ctx context.Context, app *models.Application) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	app.SetIdentityKeys()
	return s.db.WithContext(ctx).Create(app).Error
}

func (s *Store) InsertMany(ctx context.Context, apps []models.Application) error {
	if len(apps) == 0 {
		return nil
	}
	for i := range apps {
		apps[i].SetIdentityKeys()
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.db.WithContext(ctx).CreateInBatches(apps, 100).Error
}

// UpdateOne writes the given columns on the first matching row and reports
// how many rows matched. Identity keys follow company and position.
func (s *Store) UpdateOne(ctx context.Context, f Filter, fields map[string]interface{}) (int64, error) {
	if f.ID == "" {
		return 0, errors.New("update requires an id filter")
	}
	cols := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		cols[k] = v
	}
	if v, ok := fields["company"].(string); ok {
		cols["company_key"] = models.IdentityKey(v)
	}
	if v, ok := fields["position"].(string); ok {
		cols["position_key"] = models.IdentityKey(v)
	}

	q, cancel := s.scoped(ctx, f)
	defer cancel()

	result := q.Updates(cols)
	return result.RowsAffected, result.Error
}

func (s *Store) DeleteOne(ctx context.Context, f Filter) (int64, error) {
	if f.ID == "" {
		return 0, errors.New("delete requires an id filter")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result := s.db.WithContext(ctx).Where("id = ?", f.ID).Delete(&models.Application{})
	return result.RowsAffected, result.Error
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var n int64
	err := s.db.WithContext(ctx).Model(&models.Application{}).Count(&n).Error
	return n, err
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
