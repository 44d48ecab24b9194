package postgres_test

import (
	"context"
	"testing"

	"github.com/dishom/opsboard/internal/domain/incident"
	"github.com/dishom/opsboard/internal/pkg/errors"
	"github.com/dishom/opsboard/internal/repository/postgres"
	"github.com/dishom/opsboard/internal/testutil"
)

func seedDBIncident(t *testing.T, repo incident.Repository, status string, ruleID *int64) int64 {
	t.Helper()
	id, err := repo.Create(context.Background(), &incident.Incident{
		Title:    "CPU saturation on worker pool",
		Status:   status,
		Severity: "warning",
		RuleID:   ruleID,
	})
	if err != nil {
		t.Fatalf("Failed to seed incident: %v", err)
	}
	return id
}

func TestIncidentCreateAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewIncidentRepository(db)

	ruleID := int64(3)
	id := seedDBIncident(t, repo, incident.StatusOpen, &ruleID)

	inc, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if inc.Title != "CPU saturation on worker pool" {
		t.Errorf("title = %q", inc.Title)
	}
	if inc.RuleID == nil || *inc.RuleID != 3 {
		t.Errorf("rule id = %v, want 3", inc.RuleID)
	}
	if inc.CreatedAt.IsZero() || inc.UpdatedAt.IsZero() {
		t.Error("timestamps not populated")
	}
}

func TestIncidentGetMissing(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewIncidentRepository(db)

	_, err := repo.GetByID(context.Background(), 999)
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("error = %v, want AppError", err)
	}
	if appErr.Code != errors.ErrCodeNotFound {
		t.Errorf("code = %q, want not found", appErr.Code)
	}
}

func TestIncidentUpdate(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewIncidentRepository(db)

	id := seedDBIncident(t, repo, incident.StatusOpen, nil)

	inc, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	assignee := int64(11)
	inc.Status = incident.StatusAcknowledged
	inc.AssignedTo = &assignee
	inc.Notes = "looking into it"
	if err := repo.Update(context.Background(), inc); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != incident.StatusAcknowledged || got.Notes != "looking into it" {
		t.Errorf("update not persisted: %+v", got)
	}
	if got.AssignedTo == nil || *got.AssignedTo != 11 {
		t.Errorf("assigned_to = %v, want 11", got.AssignedTo)
	}

	// Updating a missing incident reports not found.
	inc.ID = 999
	if err := repo.Update(context.Background(), inc); err == nil {
		t.Error("update of missing incident succeeded")
	}
}

func TestIncidentListFilters(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewIncidentRepository(db)

	seedDBIncident(t, repo, incident.StatusOpen, nil)
	seedDBIncident(t, repo, incident.StatusResolved, nil)
	seedDBIncident(t, repo, incident.StatusOpen, nil)

	incidents, total, err := repo.List(context.Background(),
		incident.Filter{Status: incident.StatusOpen}, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(incidents) != 2 {
		t.Fatalf("total = %d, len = %d, want 2/2", total, len(incidents))
	}
	for _, inc := range incidents {
		if inc.Status != incident.StatusOpen {
			t.Errorf("filter leaked status %q", inc.Status)
		}
	}

	_, total, err = repo.List(context.Background(), incident.Filter{Severity: "critical"}, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Errorf("severity filter total = %d, want 0", total)
	}
}

func TestIncidentBulkResolve(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewIncidentRepository(db)

	open := seedDBIncident(t, repo, incident.StatusOpen, nil)
	acked := seedDBIncident(t, repo, incident.StatusAcknowledged, nil)
	done := seedDBIncident(t, repo, incident.StatusResolved, nil)

	updated, err := repo.BulkResolve(context.Background(), []int64{open, acked, done, 999})
	if err != nil {
		t.Fatal(err)
	}
	if updated != 2 {
		t.Errorf("updated = %d, want 2", updated)
	}

	for _, id := range []int64{open, acked, done} {
		inc, err := repo.GetByID(context.Background(), id)
		if err != nil {
			t.Fatal(err)
		}
		if inc.Status != incident.StatusResolved {
			t.Errorf("incident %d status = %q", id, inc.Status)
		}
	}

	updated, err = repo.BulkResolve(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if updated != 0 {
		t.Errorf("empty bulk resolve updated = %d", updated)
	}
}

func TestIncidentExistsActiveForRule(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewIncidentRepository(db)

	ruleA, ruleB := int64(1), int64(2)
	seedDBIncident(t, repo, incident.StatusResolved, &ruleA)
	id := seedDBIncident(t, repo, incident.StatusOpen, &ruleA)
	seedDBIncident(t, repo, incident.StatusOpen, nil) // manual, no rule

	exists, err := repo.ExistsActiveForRule(context.Background(), ruleA)
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("open incident for rule A not seen")
	}

	exists, err = repo.ExistsActiveForRule(context.Background(), ruleB)
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("rule B has no incidents but reads active")
	}

	// Acknowledged still counts as active; resolved does not.
	inc, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	inc.Status = incident.StatusAcknowledged
	if err := repo.Update(context.Background(), inc); err != nil {
		t.Fatal(err)
	}
	exists, _ = repo.ExistsActiveForRule(context.Background(), ruleA)
	if !exists {
		t.Error("acknowledged incident should count as active")
	}

	inc.Status = incident.StatusResolved
	if err := repo.Update(context.Background(), inc); err != nil {
		t.Fatal(err)
	}
	exists, _ = repo.ExistsActiveForRule(context.Background(), ruleA)
	if exists {
		t.Error("resolved incident should not count as active")
	}
}

func TestIncidentActiveUniquePerRule(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := postgres.NewIncidentRepository(db)

	ruleID := int64(5)
	seedDBIncident(t, repo, incident.StatusOpen, &ruleID)

	// The partial unique index rejects a second active incident for the
	// same rule at the storage layer.
	_, err := repo.Create(context.Background(), &incident.Incident{
		Title:    "duplicate alarm",
		Status:   incident.StatusOpen,
		Severity: "warning",
		RuleID:   &ruleID,
	})
	if err == nil {
		t.Fatal("second active incident for the rule was accepted")
	}

	// A resolved one is fine, and after that a fresh active one is too.
	_, err = repo.Create(context.Background(), &incident.Incident{
		Title:    "past alarm",
		Status:   incident.StatusResolved,
		Severity: "warning",
		RuleID:   &ruleID,
	})
	if err != nil {
		t.Fatalf("resolved incident rejected: %v", err)
	}
}
