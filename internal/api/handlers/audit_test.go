package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/dishom/opsboard/internal/api/middleware"
	"github.com/dishom/opsboard/internal/auth"
	"github.com/dishom/opsboard/internal/domain/audit"
	"github.com/dishom/opsboard/internal/livefeed"
	"github.com/dishom/opsboard/internal/services"
	"github.com/dishom/opsboard/internal/testutil"
)

func newAuditHandler(t *testing.T) (*AuditHandler, *testutil.MockAuditRepository) {
	t.Helper()
	repo := testutil.NewMockAuditRepository()
	hub := livefeed.NewHub(16, testutil.NewTestLogger())
	t.Cleanup(hub.Close)
	svc := services.NewAuditService(repo, hub, testutil.NewTestLogger(), 4096, 365)
	return NewAuditHandler(svc, testutil.NewTestLogger()), repo
}

func withCaps(r *http.Request, caps auth.Capabilities) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.CapabilitiesKey, caps))
}

func seedAuditEntries(repo *testutil.MockAuditRepository, n int) {
	actor := int64(7)
	ip := "198.51.100.4"
	objectID := "42"
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		id := int64(i + 1)
		repo.Entries[id] = &audit.Entry{
			ID:         id,
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			ActorID:    &actor,
			Action:     audit.ActionUpdate,
			Subsystem:  "courses",
			EntityKind: "course",
			EntityID:   &objectID,
			ClientIP:   &ip,
			Before:     json.RawMessage(`{"v":1}`),
		}
		repo.NextID = id + 1
	}
}

func TestListLogsPaginated(t *testing.T) {
	h, repo := newAuditHandler(t)
	seedAuditEntries(repo, 5)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs?page=1&page_size=2", nil)
	rec := httptest.NewRecorder()
	h.List(rec, withCaps(req, auth.Capabilities{ViewLogs: true}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Data       []audit.View `json:"data"`
			Page       int          `json:"page"`
			PageSize   int          `json:"page_size"`
			TotalItems int64        `json:"total_items"`
			TotalPages int          `json:"total_pages"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.TotalItems != 5 || resp.Data.TotalPages != 3 {
		t.Errorf("totals = %d items / %d pages, want 5/3", resp.Data.TotalItems, resp.Data.TotalPages)
	}
	if len(resp.Data.Data) != 2 {
		t.Fatalf("page length = %d, want 2", len(resp.Data.Data))
	}
	// Newest first; snapshots redacted without the full-audit tier.
	if resp.Data.Data[0].ID != 5 {
		t.Errorf("first id = %d, want 5", resp.Data.Data[0].ID)
	}
	if resp.Data.Data[0].Before != nil {
		t.Error("before snapshot visible without full audit")
	}
}

func TestListLogsInvalidFilter(t *testing.T) {
	h, _ := newAuditHandler(t)

	for _, query := range []string{
		"start=yesterday",
		"end=not-a-time",
		"user=bob",
		"action=EXPLODE",
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/logs?"+query, nil)
		rec := httptest.NewRecorder()
		h.List(rec, withCaps(req, auth.Capabilities{ViewLogs: true}))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("query %q: status = %d, want 400", query, rec.Code)
		}
	}
}

func TestParseAuditFilterParamNames(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/logs?user=7&action=UPDATE&app=payments&model=payment&q=stripe", nil)

	filter, err := parseAuditFilter(req)
	if err != nil {
		t.Fatal(err)
	}
	if filter.ActorID == nil || *filter.ActorID != 7 {
		t.Errorf("actor id = %v, want 7", filter.ActorID)
	}
	if filter.Action != audit.ActionUpdate {
		t.Errorf("action = %q, want %q", filter.Action, audit.ActionUpdate)
	}
	if filter.Subsystem != "payments" {
		t.Errorf("subsystem = %q, want payments", filter.Subsystem)
	}
	if filter.EntityKind != "payment" {
		t.Errorf("entity kind = %q, want payment", filter.EntityKind)
	}
	if filter.Search != "stripe" {
		t.Errorf("search = %q, want stripe", filter.Search)
	}
}

func TestListLogsAppliesFilters(t *testing.T) {
	h, repo := newAuditHandler(t)
	seedAuditEntries(repo, 3)
	repo.Entries[9] = &audit.Entry{
		ID:         9,
		Timestamp:  time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC),
		Action:     audit.ActionCreate,
		Subsystem:  "payments",
		EntityKind: "payment",
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs?app=payments&action=CREATE", nil)
	rec := httptest.NewRecorder()
	h.List(rec, withCaps(req, auth.Capabilities{ViewLogs: true}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			Data       []audit.View `json:"data"`
			TotalItems int64        `json:"total_items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.TotalItems != 1 || len(resp.Data.Data) != 1 {
		t.Fatalf("filtered total = %d (%d rows), want 1", resp.Data.TotalItems, len(resp.Data.Data))
	}
	if resp.Data.Data[0].ID != 9 {
		t.Errorf("filtered id = %d, want 9", resp.Data.Data[0].ID)
	}
}

func TestExportCSV(t *testing.T) {
	h, repo := newAuditHandler(t)
	seedAuditEntries(repo, 2)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs?export=csv", nil)
	rec := httptest.NewRecorder()
	h.List(rec, withCaps(req, auth.Capabilities{ViewLogs: true}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="audit_logs.csv"` {
		t.Errorf("content disposition = %q", cd)
	}

	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	wantHeader := []string{"timestamp", "user", "action_type", "app_label", "model_name", "object_id", "ip_address"}
	if !reflect.DeepEqual(records[0], wantHeader) {
		t.Errorf("header = %v", records[0])
	}
	if len(records) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(records))
	}
	if records[1][1] != "7" || records[1][2] != audit.ActionUpdate || records[1][6] != "198.51.100.4" {
		t.Errorf("first data row = %v", records[1])
	}
}

func TestTimelineEndpoint(t *testing.T) {
	h, repo := newAuditHandler(t)
	seedAuditEntries(repo, 3)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/logs/timeline?app=courses&model=course&object_id=42", nil)
	rec := httptest.NewRecorder()
	h.Timeline(rec, withCaps(req, auth.Capabilities{ViewLogs: true}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data []audit.View `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 3 {
		t.Fatalf("timeline entries = %d, want 3", len(resp.Data))
	}
	// Oldest first.
	if resp.Data[0].ID != 1 || resp.Data[2].ID != 3 {
		t.Errorf("timeline order: first = %d, last = %d", resp.Data[0].ID, resp.Data[2].ID)
	}
}

func TestTimelineRequiresSelectors(t *testing.T) {
	h, _ := newAuditHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs/timeline?app=courses", nil)
	rec := httptest.NewRecorder()
	h.Timeline(rec, withCaps(req, auth.Capabilities{ViewLogs: true}))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRecentEventsEndpoint(t *testing.T) {
	h, repo := newAuditHandler(t)
	seedAuditEntries(repo, 2)
	// A login entry is not a mutation and stays off the feed catch-up.
	actor := int64(9)
	repo.Entries[10] = &audit.Entry{
		ID:        10,
		Timestamp: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		ActorID:   &actor,
		Action:    audit.ActionLogin,
		Subsystem: "accounts",
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/live-events", nil)
	rec := httptest.NewRecorder()
	h.RecentEvents(rec, withCaps(req, auth.Capabilities{ViewLogs: true}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Data []audit.View `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("recent events = %d, want 2", len(resp.Data))
	}
	for _, v := range resp.Data {
		if v.Action == audit.ActionLogin {
			t.Error("login event leaked into recent mutations")
		}
	}
}
