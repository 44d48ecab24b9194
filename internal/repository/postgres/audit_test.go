package postgres_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dishom/opsboard/internal/domain/audit"
	"github.com/dishom/opsboard/internal/repository/postgres"
	"github.com/dishom/opsboard/internal/testutil"
)

func seedEntry(t *testing.T, repo audit.Repository, e *audit.Entry) *audit.Entry {
	t.Helper()
	if e.Action == "" {
		e.Action = audit.ActionUpdate
	}
	if e.Subsystem == "" {
		e.Subsystem = "courses"
	}
	if e.EntityKind == "" {
		e.EntityKind = "course"
	}
	if _, err := repo.Create(context.Background(), e); err != nil {
		t.Fatalf("Failed to seed audit entry: %v", err)
	}
	return e
}

func TestAuditCreateAssignsIDAndTimestamp(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewAuditRepository(db)

	e := seedEntry(t, repo, &audit.Entry{})
	if e.ID == 0 {
		t.Error("id not assigned")
	}
	if e.Timestamp.IsZero() {
		t.Error("timestamp not assigned")
	}

	second := seedEntry(t, repo, &audit.Entry{})
	if second.ID != e.ID+1 {
		t.Errorf("second id = %d, want %d", second.ID, e.ID+1)
	}
}

func TestAuditListOrdering(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewAuditRepository(db)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// Insert out of chronological order; ties on timestamp break by ID.
	seedEntry(t, repo, &audit.Entry{Timestamp: base.Add(2 * time.Minute)}) // id 1
	seedEntry(t, repo, &audit.Entry{Timestamp: base})                     // id 2
	seedEntry(t, repo, &audit.Entry{Timestamp: base.Add(2 * time.Minute)}) // id 3

	entries, total, err := repo.List(context.Background(), audit.Filter{}, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}

	wantIDs := []int64{3, 1, 2} // newest first, higher id first on ties
	for i, e := range entries {
		if e.ID != wantIDs[i] {
			t.Errorf("position %d: id = %d, want %d", i, e.ID, wantIDs[i])
		}
	}
}

func TestAuditListFilters(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewAuditRepository(db)

	actor := int64(7)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedEntry(t, repo, &audit.Entry{Timestamp: base, ActorID: &actor, Action: audit.ActionCreate, Subsystem: "payments"})
	seedEntry(t, repo, &audit.Entry{Timestamp: base.Add(time.Hour), Action: audit.ActionDelete, Subsystem: "courses"})
	seedEntry(t, repo, &audit.Entry{Timestamp: base.Add(2 * time.Hour), ActorID: &actor, Action: audit.ActionUpdate, Subsystem: "courses"})

	tests := []struct {
		name    string
		filter  audit.Filter
		wantIDs []int64
	}{
		{"by actor", audit.Filter{ActorID: &actor}, []int64{3, 1}},
		{"by action", audit.Filter{Action: audit.ActionDelete}, []int64{2}},
		{"by subsystem", audit.Filter{Subsystem: "payments"}, []int64{1}},
		{"by start", audit.Filter{Start: timePtr(base.Add(30 * time.Minute))}, []int64{3, 2}},
		{"by end", audit.Filter{End: timePtr(base.Add(30 * time.Minute))}, []int64{1}},
		{"window", audit.Filter{Start: timePtr(base.Add(30 * time.Minute)), End: timePtr(base.Add(90 * time.Minute))}, []int64{2}},
		{"no match", audit.Filter{Subsystem: "grading"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, total, err := repo.List(context.Background(), tt.filter, 10, 0)
			if err != nil {
				t.Fatal(err)
			}
			if total != int64(len(tt.wantIDs)) {
				t.Errorf("total = %d, want %d", total, len(tt.wantIDs))
			}
			if len(entries) != len(tt.wantIDs) {
				t.Fatalf("len = %d, want %d", len(entries), len(tt.wantIDs))
			}
			for i, e := range entries {
				if e.ID != tt.wantIDs[i] {
					t.Errorf("position %d: id = %d, want %d", i, e.ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestAuditListSearch(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewAuditRepository(db)

	agent := "Mozilla/5.0 (Macintosh)"
	seedEntry(t, repo, &audit.Entry{ClientAgent: &agent})
	seedEntry(t, repo, &audit.Entry{Metadata: json.RawMessage(`{"note":"refund issued"}`)})
	seedEntry(t, repo, &audit.Entry{})

	entries, _, err := repo.List(context.Background(), audit.Filter{Search: "Macintosh"}, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != 1 {
		t.Errorf("search by agent returned %d entries", len(entries))
	}

	entries, _, err = repo.List(context.Background(), audit.Filter{Search: "refund"}, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != 2 {
		t.Errorf("search by metadata returned %d entries", len(entries))
	}
}

func TestAuditListPagination(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewAuditRepository(db)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedEntry(t, repo, &audit.Entry{Timestamp: base.Add(time.Duration(i) * time.Minute)})
	}

	page1, total, err := repo.List(context.Background(), audit.Filter{}, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 || len(page1) != 2 {
		t.Fatalf("total = %d, page = %d", total, len(page1))
	}
	page2, _, err := repo.List(context.Background(), audit.Filter{}, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if page1[0].ID != 5 || page2[0].ID != 3 {
		t.Errorf("page boundaries: %d then %d, want 5 then 3", page1[0].ID, page2[0].ID)
	}
}

func TestAuditTimelineAscending(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewAuditRepository(db)

	id42 := "42"
	other := "9"
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedEntry(t, repo, &audit.Entry{Timestamp: base.Add(time.Hour), EntityID: &id42, Action: audit.ActionUpdate})
	seedEntry(t, repo, &audit.Entry{Timestamp: base, EntityID: &id42, Action: audit.ActionCreate})
	seedEntry(t, repo, &audit.Entry{Timestamp: base, EntityID: &other})

	entries, err := repo.Timeline(context.Background(), "courses", "course", "42")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	if entries[0].Action != audit.ActionCreate || entries[1].Action != audit.ActionUpdate {
		t.Errorf("timeline not oldest-first: %s then %s", entries[0].Action, entries[1].Action)
	}
}

func TestAuditRecentMutationsOnly(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewAuditRepository(db)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedEntry(t, repo, &audit.Entry{Timestamp: base, Action: audit.ActionCreate})
	seedEntry(t, repo, &audit.Entry{Timestamp: base.Add(time.Minute), Action: audit.ActionLogin})
	seedEntry(t, repo, &audit.Entry{Timestamp: base.Add(2 * time.Minute), Action: audit.ActionDelete, Subsystem: "payments"})

	entries, err := repo.Recent(context.Background(), audit.MutationActions, "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2 (LOGIN excluded)", len(entries))
	}
	if entries[0].Action != audit.ActionDelete {
		t.Errorf("newest first: got %s", entries[0].Action)
	}

	entries, err = repo.Recent(context.Background(), audit.MutationActions, "payments", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Subsystem != "payments" {
		t.Errorf("subsystem filter returned %d entries", len(entries))
	}
}

func TestAuditRetentionPurge(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewAuditRepository(db)

	now := time.Now().UTC()
	for _, age := range []int{400, 380, 370} {
		seedEntry(t, repo, &audit.Entry{Timestamp: now.AddDate(0, 0, -age)})
	}
	for _, age := range []int{10, 2} {
		seedEntry(t, repo, &audit.Entry{Timestamp: now.AddDate(0, 0, -age)})
	}

	cutoff := now.AddDate(0, 0, -365)
	deleted, err := repo.DeleteOlderThan(context.Background(), cutoff)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 3 {
		t.Errorf("deleted = %d, want 3", deleted)
	}

	_, total, err := repo.List(context.Background(), audit.Filter{}, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Errorf("remaining = %d, want 2", total)
	}

	deleted, err = repo.DeleteOlderThan(context.Background(), cutoff)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 0 {
		t.Errorf("second purge deleted = %d, want 0", deleted)
	}
}

func TestAuditSnapshotsRoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewAuditRepository(db)

	seedEntry(t, repo, &audit.Entry{
		Before:   json.RawMessage(`{"title":"old"}`),
		After:    json.RawMessage(`{"title":"new"}`),
		Metadata: json.RawMessage(`{"reason":"rename"}`),
	})
	seedEntry(t, repo, &audit.Entry{}) // all snapshot columns NULL

	entries, _, err := repo.List(context.Background(), audit.Filter{}, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	var withSnap, withoutSnap *audit.Entry
	for _, e := range entries {
		if e.ID == 1 {
			withSnap = e
		} else {
			withoutSnap = e
		}
	}
	if string(withSnap.Before) != `{"title":"old"}` || string(withSnap.After) != `{"title":"new"}` {
		t.Errorf("snapshots = %s / %s", withSnap.Before, withSnap.After)
	}
	if withoutSnap.Before != nil || withoutSnap.After != nil || withoutSnap.Metadata != nil {
		t.Error("NULL snapshot columns should scan as nil")
	}
}

func timePtr(t time.Time) *time.Time { return &t }
