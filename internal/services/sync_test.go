package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/broadcast"
	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/store"
)

func TestSync_EmptySnapshotReturnsEverything(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	svc.Create(ctx, map[string]interface{}{"company": "Acme", "position": "Engineer"})
	svc.Create(ctx, map[string]interface{}{"company": "Globex", "position": "Designer"})

	resp, err := svc.Sync(ctx, []map[string]interface{}{})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if len(resp.Missing) != 2 {
		t.Errorf("expected 2 missing records, got %d", len(resp.Missing))
	}
	if resp.AdmittedCount != 0 {
		t.Errorf("expected 0 admitted, got %d", resp.AdmittedCount)
	}
}

func TestSync_AdmitsClientOnlyRecord(t *testing.T) {
	svc, st, pub := setupService(t)
	ctx := context.Background()
	clientStamp := "2020-01-01T00:00:00Z"

	resp, err := svc.Sync(ctx, []map[string]interface{}{{
		"id":        "offline-1",
		"company":   "Initech",
		"position":  "Analyst",
		"createdAt": clientStamp,
	}})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if resp.AdmittedCount != 1 {
		t.Fatalf("expected 1 admitted, got %d", resp.AdmittedCount)
	}

	assigned := resp.Admitted[0].ID
	if assigned == "offline-1" {
		t.Fatal("admitted record must get a server-assigned id")
	}
	if resp.Replaced["offline-1"] != assigned {
		t.Errorf("expected replaced[offline-1] = %s, got %v", assigned, resp.Replaced)
	}
	got, err := st.FindOne(ctx, store.ByID(assigned))
	if err != nil {
		t.Fatalf("admitted record not stored: %v", err)
	}
	if got.CreatedAt.Year() == 2020 {
		t.Error("client createdAt must not be trusted")
	}
	if time.Since(got.CreatedAt) > time.Minute {
		t.Errorf("expected fresh createdAt, got %v", got.CreatedAt)
	}
	if len(pub.types()) != 0 {
		t.Errorf("sync admissions are not broadcast by default, got %v", pub.types())
	}
}

func TestSync_IsIdempotent(t *testing.T) {
	svc, st, _ := setupService(t)
	ctx := context.Background()
	svc.Create(ctx, map[string]interface{}{"company": "Acme", "position": "Engineer"})

	snapshot := []map[string]interface{}{
		{"id": "c-1", "company": "Initech", "position": "Analyst"},
		{"company": "Hooli", "position": "PM"},
	}

	first, err := svc.Sync(ctx, snapshot)
	if err != nil {
		t.Fatalf("first Sync failed: %v", err)
	}
	if first.AdmittedCount != 2 {
		t.Fatalf("expected 2 admitted on first sync, got %d", first.AdmittedCount)
	}

	second, err := svc.Sync(ctx, snapshot)
	if err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}
	if second.AdmittedCount != 0 {
		t.Errorf("expected 0 admitted on second sync, got %d", second.AdmittedCount)
	}
	if n, _ := st.Count(ctx); n != 3 {
		t.Errorf("expected 3 stored records, got %d", n)
	}
}

func TestSync_DeletedIDIsNotReused(t *testing.T) {
	svc, st, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, map[string]interface{}{"company": "Acme", "position": "Engineer"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// A client that cached the record before the delete syncs it back.
	resp, err := svc.Sync(ctx, []map[string]interface{}{{
		"id": created.ID, "company": "Acme", "position": "Engineer",
	}})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if resp.AdmittedCount != 1 {
		t.Fatalf("expected 1 admitted, got %d", resp.AdmittedCount)
	}
	if resp.Admitted[0].ID == created.ID {
		t.Fatalf("deleted id %s was reused", created.ID)
	}
	if _, err := st.FindOne(ctx, store.ByID(created.ID)); !errors.Is(err, store.ErrNoRecord) {
		t.Errorf("deleted id must stay unused, got %v", err)
	}
}

func TestSync_OversizedClientIDIsAdmitted(t *testing.T) {
	svc, _, _ := setupService(t)
	longID := strings.Repeat("x", 200)

	resp, err := svc.Sync(context.Background(), []map[string]interface{}{
		{"id": longID, "company": "Acme"},
	})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if resp.AdmittedCount != 1 || len(resp.Admitted[0].ID) > 64 {
		t.Fatalf("expected admission under a server id, got %+v", resp.Admitted)
	}
	if resp.Replaced[longID] != resp.Admitted[0].ID {
		t.Errorf("expected replaced entry for the client id")
	}
}

func TestSync_MutualDuplicatesAdmitOnce(t *testing.T) {
	svc, st, _ := setupService(t)
	ctx := context.Background()

	resp, err := svc.Sync(ctx, []map[string]interface{}{
		{"id": "a", "company": "Acme", "position": "Engineer"},
		{"id": "b", "company": "ACME", "position": "engineer"},
		{"id": "c", "company": "acme", "position": "Engineer ", "jobUrl": ""},
		{"id": "d", "company": "Other", "position": "Role"},
	})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if resp.AdmittedCount != 2 {
		t.Fatalf("expected 2 admitted (one Acme, one Other), got %d", resp.AdmittedCount)
	}
	if resp.SkippedCount != 2 {
		t.Errorf("expected 2 skipped, got %d", resp.SkippedCount)
	}
	if n, _ := st.Count(ctx); n != 2 {
		t.Errorf("expected 2 stored records, got %d", n)
	}
}

func TestSync_DuplicateOfStoredRecordIsSkipped(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	svc.Create(ctx, map[string]interface{}{"company": "Acme", "position": "Engineer"})

	resp, err := svc.Sync(ctx, []map[string]interface{}{
		{"id": "local-xyz", "company": "acme", "position": "engineer"},
	})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if resp.AdmittedCount != 0 || resp.SkippedCount != 1 {
		t.Errorf("expected skip, got admitted=%d skipped=%d", resp.AdmittedCount, resp.SkippedCount)
	}
	if len(resp.Missing) != 1 {
		t.Errorf("client still lacks the stored id, expected 1 missing, got %d", len(resp.Missing))
	}
}

func TestSync_InvalidAndRepeatedIDsAreSkipped(t *testing.T) {
	svc, _, _ := setupService(t)

	resp, err := svc.Sync(context.Background(), []map[string]interface{}{
		{"id": "x", "notes": "no identity"},
		{"id": "y", "company": "Acme"},
		{"id": "y", "company": "Acme Again"},
	})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if resp.AdmittedCount != 1 || resp.SkippedCount != 2 {
		t.Errorf("expected admitted=1 skipped=2, got admitted=%d skipped=%d", resp.AdmittedCount, resp.SkippedCount)
	}
}

func TestSync_MissingIsNewestFirstAndExcludesKnownIDs(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		tick = tick.Add(time.Hour)
		return tick
	}

	a, _ := svc.Create(ctx, map[string]interface{}{"company": "A"})
	b, _ := svc.Create(ctx, map[string]interface{}{"company": "B"})
	c, _ := svc.Create(ctx, map[string]interface{}{"company": "C"})

	resp, err := svc.Sync(ctx, []map[string]interface{}{{"id": b.ID, "company": "B"}})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if len(resp.Missing) != 2 {
		t.Fatalf("expected 2 missing, got %d", len(resp.Missing))
	}
	if resp.Missing[0].ID != c.ID || resp.Missing[1].ID != a.ID {
		t.Errorf("expected [C, A], got [%s, %s]", resp.Missing[0].Company, resp.Missing[1].Company)
	}
	if resp.AdmittedCount != 0 {
		t.Errorf("known id must not be admitted, got %d", resp.AdmittedCount)
	}
}

func TestSync_BroadcastAdmissionsWhenEnabled(t *testing.T) {
	svc, _, pub := setupService(t)
	svc.BroadcastAdmissions = true

	svc.Sync(context.Background(), []map[string]interface{}{
		{"id": "1", "company": "Acme"},
		{"id": "2", "company": "Globex"},
	})

	types := pub.types()
	if len(types) != 2 {
		t.Fatalf("expected 2 events, got %v", types)
	}
	for _, typ := range types {
		if typ != broadcast.EventNewApplication {
			t.Errorf("expected NEW_APPLICATION, got %s", typ)
		}
	}
}
