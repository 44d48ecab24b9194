package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dishom/opsboard/internal/domain/audit"
	"github.com/dishom/opsboard/internal/livefeed"
	"github.com/dishom/opsboard/internal/pkg/errors"
	"github.com/dishom/opsboard/internal/pkg/utils"
	"github.com/dishom/opsboard/internal/testutil"
)

func newActionsFixture(t *testing.T, tables ...string) (*ActionsService, *testutil.MockAuditRepository) {
	t.Helper()
	db := testutil.NewTestDB(t)
	testutil.CreateDomainTables(t, db, tables...)

	auditRepo := testutil.NewMockAuditRepository()
	hub := livefeed.NewHub(16, testutil.NewTestLogger())
	t.Cleanup(hub.Close)
	auditSvc := NewAuditService(auditRepo, hub, testutil.NewTestLogger(), 4096, 365)

	return NewActionsService(db, "sqlite", auditSvc, testutil.NewTestLogger()), auditRepo
}

func TestExecuteUnknownAction(t *testing.T) {
	svc, _ := newActionsFixture(t)

	_, err := svc.Execute(context.Background(), ActionRequest{Action: "reboot_universe", TargetID: 1})
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("error = %v, want AppError", err)
	}
	if appErr.Code != errors.ErrCodeBadRequest {
		t.Errorf("code = %q, want bad request", appErr.Code)
	}
}

func TestForceLogoutDeletesSessions(t *testing.T) {
	svc, auditRepo := newActionsFixture(t, "sessions")

	db := svc.db
	now := utils.FormatTimestamp(time.Now().UTC())
	for i := 0; i < 3; i++ {
		if _, err := db.Exec(`INSERT INTO sessions (user_id, created_at) VALUES ($1, $2)`, 7, now); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := db.Exec(`INSERT INTO sessions (user_id, created_at) VALUES ($1, $2)`, 8, now); err != nil {
		t.Fatal(err)
	}

	result, err := svc.Execute(context.Background(), ActionRequest{
		Action:   ActionForceLogout,
		TargetID: 7,
		ActorID:  int64Ptr(1),
	})
	if err != nil {
		t.Fatal(err)
	}
	if result["sessions_deleted"].(int64) != 3 {
		t.Errorf("sessions_deleted = %v, want 3", result["sessions_deleted"])
	}

	var remaining int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&remaining); err != nil {
		t.Fatal(err)
	}
	if remaining != 1 {
		t.Errorf("remaining sessions = %d, want 1", remaining)
	}

	// The action itself landed on the trail.
	if len(auditRepo.Entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(auditRepo.Entries))
	}
	entry := auditRepo.Entries[1]
	if entry.Subsystem != "dashboard" || entry.EntityKind != "admin_action" {
		t.Errorf("audit entry = %+v", entry)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(entry.Metadata, &meta); err != nil {
		t.Fatal(err)
	}
	if meta["admin_action"] != ActionForceLogout {
		t.Errorf("metadata admin_action = %v", meta["admin_action"])
	}
}

func TestForceLogoutWithoutSessionsTable(t *testing.T) {
	svc, auditRepo := newActionsFixture(t)

	_, err := svc.Execute(context.Background(), ActionRequest{Action: ActionForceLogout, TargetID: 7})
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("error = %v, want AppError", err)
	}
	if appErr.Code != errors.ErrCodeConflict {
		t.Errorf("code = %q, want conflict", appErr.Code)
	}
	if len(auditRepo.Entries) != 0 {
		t.Error("failed action should not be audited")
	}
}

func TestFlagEnrollment(t *testing.T) {
	svc, _ := newActionsFixture(t, "enrollments")

	now := utils.FormatTimestamp(time.Now().UTC())
	if _, err := svc.db.Exec(
		`INSERT INTO enrollments (status, flagged, created_at, updated_at) VALUES ('active', FALSE, $1, $2)`,
		now, now,
	); err != nil {
		t.Fatal(err)
	}

	result, err := svc.Execute(context.Background(), ActionRequest{Action: ActionFlagEnrollment, TargetID: 1})
	if err != nil {
		t.Fatal(err)
	}
	if result["flagged"] != true {
		t.Errorf("result = %v", result)
	}

	var flagged bool
	if err := svc.db.QueryRow(`SELECT flagged FROM enrollments WHERE id = 1`).Scan(&flagged); err != nil {
		t.Fatal(err)
	}
	if !flagged {
		t.Error("enrollment not flagged in the table")
	}
}

func TestFlagEnrollmentNotFound(t *testing.T) {
	svc, _ := newActionsFixture(t, "enrollments")

	_, err := svc.Execute(context.Background(), ActionRequest{Action: ActionFlagEnrollment, TargetID: 99})
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("error = %v, want AppError", err)
	}
	if appErr.Code != errors.ErrCodeNotFound {
		t.Errorf("code = %q, want not found", appErr.Code)
	}
}

func TestResendInvoice(t *testing.T) {
	svc, _ := newActionsFixture(t, "payments")

	now := utils.FormatTimestamp(time.Now().UTC())
	if _, err := svc.db.Exec(
		`INSERT INTO payments (status, amount, timestamp) VALUES ('SUCCESS', 49.99, $1)`, now,
	); err != nil {
		t.Fatal(err)
	}

	result, err := svc.Execute(context.Background(), ActionRequest{Action: ActionResendInvoice, TargetID: 1})
	if err != nil {
		t.Fatal(err)
	}
	if result["resent"] != true {
		t.Errorf("result = %v", result)
	}

	_, err = svc.Execute(context.Background(), ActionRequest{Action: ActionResendInvoice, TargetID: 2})
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("error = %v, want AppError", err)
	}
	if appErr.Code != errors.ErrCodeNotFound {
		t.Errorf("code = %q, want not found", appErr.Code)
	}
}

func TestExecuteAuditsActionContext(t *testing.T) {
	svc, auditRepo := newActionsFixture(t, "payments")

	now := utils.FormatTimestamp(time.Now().UTC())
	if _, err := svc.db.Exec(
		`INSERT INTO payments (status, amount, timestamp) VALUES ('FAILED', 10, $1)`, now,
	); err != nil {
		t.Fatal(err)
	}

	ip := "203.0.113.9"
	_, err := svc.Execute(context.Background(), ActionRequest{
		Action:   ActionResendInvoice,
		TargetID: 1,
		ActorID:  int64Ptr(5),
		ClientIP: &ip,
	})
	if err != nil {
		t.Fatal(err)
	}

	entry := auditRepo.Entries[1]
	if entry.ActorID == nil || *entry.ActorID != 5 {
		t.Errorf("actor = %v, want 5", entry.ActorID)
	}
	if entry.ClientIP == nil || *entry.ClientIP != ip {
		t.Errorf("client ip = %v, want %s", entry.ClientIP, ip)
	}
	if entry.Action != audit.ActionUpdate {
		t.Errorf("action kind = %q, want UPDATE", entry.Action)
	}
}
