package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/broadcast"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/normalize"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/store"
	"github.com/google/uuid"
)

// ApplicationStore is the subset of the persistence layer the service needs.
type ApplicationStore interface {
	Find(ctx context.Context, f store.Filter) ([]models.Application, error)
	FindOne(ctx context.Context, f store.Filter) (*models.Application, error)
	InsertOne(ctx context.Context, app *models.Application) error
	UpdateOne(ctx context.Context, f store.Filter, fields map[string]interface{}) (int64, error)
	DeleteOne(ctx context.Context, f store.Filter) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type ApplicationService struct {
	store     ApplicationStore
	publisher broadcast.Publisher
	now       func() time.Time

	// BroadcastAdmissions publishes a NEW_APPLICATION event for every record
	// admitted by Sync. Off by default: sync is a catch-up, not a live edit.
	BroadcastAdmissions bool

	// mu serializes duplicate-check-then-insert so two writers cannot both
	// admit the same identity.
	mu sync.Mutex
}

func NewApplicationService(s ApplicationStore, publisher broadcast.Publisher) *ApplicationService {
	return &ApplicationService{
		store:     s,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

func (s *ApplicationService) List(ctx context.Context) ([]models.Application, error) {
	apps, err := s.store.Find(ctx, store.Filter{})
	if err != nil {
		return nil, unavailable("list", err)
	}
	if apps == nil {
		apps = []models.Application{}
	}
	return apps, nil
}

func (s *ApplicationService) Get(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.store.FindOne(ctx, store.ByID(id))
	if errors.Is(err, store.ErrNoRecord) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get", err)
	}
	return app, nil
}

func (s *ApplicationService) Count(ctx context.Context) (int64, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, unavailable("count", err)
	}
	return n, nil
}

func (s *ApplicationService) Create(ctx context.Context, payload map[string]interface{}) (*models.Application, error) {
	app, err := s.insertUnique(ctx, payload)
	if err != nil {
		return nil, err
	}

	slog.Info("application created", "application_id", app.ID, "company", app.Company, "position", app.Position)
	s.publisher.Publish(broadcast.Created(*app))
	return app, nil
}

// insertUnique runs the duplicate check and the insert as one step under
// s.mu. Publishing happens after the lock is released.
func (s *ApplicationService) insertUnique(ctx context.Context, payload map[string]interface{}) (*models.Application, error) {
	now := s.now()
	app, err := ValidateRecord(payload, now)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dup, err := s.duplicateInStore(ctx, app)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrDuplicate
	}

	app.ID = uuid.NewString()
	app.CreatedAt = now
	app.UpdatedAt = now
	if err := s.store.InsertOne(ctx, &app); err != nil {
		return nil, unavailable("insert", err)
	}
	return &app, nil
}

// Update overwrites the supplied fields. The company/position invariant is
// only enforced at creation, so an update may blank both.
func (s *ApplicationService) Update(ctx context.Context, id string, req dto.UpdateApplicationRequest) (*models.Application, error) {
	fields := updateFields(req)
	fields["updated_at"] = s.now()

	matched, err := s.store.UpdateOne(ctx, store.ByID(id), fields)
	if err != nil {
		return nil, unavailable("update", err)
	}
	if matched == 0 {
		return nil, ErrNotFound
	}

	app, err := s.store.FindOne(ctx, store.ByID(id))
	if errors.Is(err, store.ErrNoRecord) {
		// Deleted between the two calls.
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("reload", err)
	}

	slog.Info("application updated", "application_id", id, "fields", len(fields)-1)
	s.publisher.Publish(broadcast.Updated(*app))
	return app, nil
}

func (s *ApplicationService) Delete(ctx context.Context, id string) error {
	deleted, err := s.store.DeleteOne(ctx, store.ByID(id))
	if err != nil {
		return unavailable("delete", err)
	}
	if deleted == 0 {
		return ErrNotFound
	}

	slog.Info("application deleted", "application_id", id)
	s.publisher.Publish(broadcast.Deleted(id))
	return nil
}

// duplicateInStore checks candidate against live store rows sharing its
// case-folded company/position.
func (s *ApplicationService) duplicateInStore(ctx context.Context, candidate models.Application) (bool, error) {
	existing, err := s.store.Find(ctx, store.ByIdentity(candidate.Company, candidate.Position))
	if err != nil {
		return false, unavailable("duplicate check", err)
	}
	return IsDuplicate(candidate, existing), nil
}

func updateFields(req dto.UpdateApplicationRequest) map[string]interface{} {
	fields := make(map[string]interface{})
	if req.Company != nil {
		fields["company"] = strings.TrimSpace(*req.Company)
	}
	if req.Position != nil {
		fields["position"] = strings.TrimSpace(*req.Position)
	}
	if req.Location != nil {
		fields["location"] = strings.TrimSpace(*req.Location)
	}
	if req.Salary != nil {
		fields["salary"] = strings.TrimSpace(*req.Salary)
	}
	if req.JobURL != nil {
		fields["job_url"] = strings.TrimSpace(*req.JobURL)
	}
	if req.Description != nil {
		fields["description"] = normalize.Description(*req.Description)
	}
	if req.AppliedDate != nil {
		fields["applied_date"] = calendarDate(strings.TrimSpace(*req.AppliedDate))
	}
	if req.Status != nil {
		fields["status"] = strings.TrimSpace(*req.Status)
	}
	if req.Notes != nil {
		fields["notes"] = strings.TrimSpace(*req.Notes)
	}
	return fields
}
