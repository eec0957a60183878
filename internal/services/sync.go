package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/broadcast"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/store"
	"github.com/google/uuid"
)

// Sync reconciles a client's cached records with the store. Records the
// client lacks come back in Missing (newest first); client records the store
// lacks are admitted one at a time under a server-assigned id, each
// re-checked for identity duplicates against everything stored or admitted
// so far. Duplicates and invalid records are skipped, not reported as
// errors, which makes a repeated sync with the same snapshot admit nothing.
func (s *ApplicationService) Sync(ctx context.Context, snapshot []map[string]interface{}) (*dto.SyncResponse, error) {
	resp, err := s.reconcile(ctx, snapshot)
	if err != nil {
		return nil, err
	}

	slog.Info("sync completed",
		"client_records", len(snapshot),
		"missing", len(resp.Missing),
		"admitted", resp.AdmittedCount,
		"skipped", resp.SkippedCount,
	)
	if s.BroadcastAdmissions {
		for _, app := range resp.Admitted {
			s.publisher.Publish(broadcast.Created(app))
		}
	}
	return resp, nil
}

func (s *ApplicationService) reconcile(ctx context.Context, snapshot []map[string]interface{}) (*dto.SyncResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.store.Find(ctx, store.Filter{})
	if err != nil {
		return nil, unavailable("sync load", err)
	}

	storeIDs := make(map[string]struct{}, len(stored))
	for _, app := range stored {
		storeIDs[app.ID] = struct{}{}
	}
	clientIDs := make(map[string]struct{}, len(snapshot))
	for _, payload := range snapshot {
		if id := clientID(payload); id != "" {
			clientIDs[id] = struct{}{}
		}
	}

	resp := &dto.SyncResponse{
		Missing:  missingFromClient(stored, clientIDs),
		Admitted: []models.Application{},
		Replaced: map[string]string{},
	}

	index := NewIdentityIndex(stored)
	seen := make(map[string]struct{}, len(snapshot))

	for _, payload := range snapshot {
		id := clientID(payload)
		if id != "" {
			if _, ok := storeIDs[id]; ok {
				continue
			}
			if _, ok := seen[id]; ok {
				resp.SkippedCount++
				continue
			}
			seen[id] = struct{}{}
		}

		app, err := s.admit(ctx, payload, index)
		if err != nil {
			if errors.Is(err, ErrValidation) || errors.Is(err, ErrDuplicate) {
				slog.Debug("sync candidate skipped", "client_id", id, "reason", err.Error())
				resp.SkippedCount++
				continue
			}
			return nil, err
		}

		resp.Admitted = append(resp.Admitted, *app)
		if id != "" {
			resp.Replaced[id] = app.ID
		}
	}

	resp.AdmittedCount = len(resp.Admitted)
	return resp, nil
}

// admit validates and inserts one client-only record under a fresh id.
// Client ids are never stored: one may belong to a record deleted on the
// server, and ids are not reused. Caller holds s.mu.
func (s *ApplicationService) admit(ctx context.Context, payload map[string]interface{}, index *IdentityIndex) (*models.Application, error) {
	now := s.now()
	app, err := ValidateRecord(payload, now)
	if err != nil {
		return nil, err
	}
	if index.Contains(app) {
		return nil, ErrDuplicate
	}
	// The pre-batch load may be stale if another instance shares the store.
	dup, err := s.duplicateInStore(ctx, app)
	if err != nil {
		return nil, err
	}
	if dup {
		index.Add(app)
		return nil, ErrDuplicate
	}

	app.ID = uuid.NewString()
	app.CreatedAt = now
	app.UpdatedAt = now
	if err := s.store.InsertOne(ctx, &app); err != nil {
		return nil, unavailable("sync insert", err)
	}
	index.Add(app)
	return &app, nil
}

func missingFromClient(stored []models.Application, clientIDs map[string]struct{}) []models.Application {
	missing := make([]models.Application, 0, len(stored))
	for _, app := range stored {
		if _, ok := clientIDs[app.ID]; !ok {
			missing = append(missing, app)
		}
	}
	sort.SliceStable(missing, func(i, j int) bool {
		return missing[i].CreatedAt.After(missing[j].CreatedAt)
	})
	return missing
}

func clientID(payload map[string]interface{}) string {
	return textField(payload, "id")
}
