package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/dishom/opsboard/internal/domain/incident"
	"github.com/dishom/opsboard/internal/pkg/validator"
	"github.com/dishom/opsboard/internal/services"
	"github.com/dishom/opsboard/internal/testutil"
)

func newIncidentRig(t *testing.T) (chi.Router, *testutil.MockIncidentRepository) {
	t.Helper()
	repo := testutil.NewMockIncidentRepository()
	svc := services.NewIncidentService(repo, testutil.NewTestLogger())
	h := NewIncidentHandler(svc, testutil.NewTestLogger(), validator.New())

	r := chi.NewRouter()
	r.Get("/api/v1/incidents", h.List)
	r.Post("/api/v1/incidents", h.Create)
	r.Post("/api/v1/incidents/bulk_resolve", h.BulkResolve)
	r.Get("/api/v1/incidents/{id}", h.Get)
	r.Patch("/api/v1/incidents/{id}/status", h.UpdateStatus)
	r.Patch("/api/v1/incidents/{id}/assign", h.Assign)
	return r, repo
}

func doJSON(t *testing.T, router chi.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateIncidentEndpoint(t *testing.T) {
	router, repo := newIncidentRig(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/incidents",
		`{"title":"Checkout page down","severity":"critical","notes":"reported by support"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	inc := repo.Incidents[resp.Data.ID]
	if inc == nil {
		t.Fatal("incident not stored")
	}
	if inc.Status != incident.StatusOpen || inc.Severity != "critical" {
		t.Errorf("stored incident = %+v", inc)
	}
	if inc.RuleID != nil {
		t.Error("manual incident should carry no rule reference")
	}
}

func TestCreateIncidentEndpointValidation(t *testing.T) {
	router, _ := newIncidentRig(t)

	for _, body := range []string{
		`{"severity":"critical"}`,
		`{"title":"x","severity":"apocalyptic"}`,
	} {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/incidents", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestUpdateStatusEndpoint(t *testing.T) {
	router, repo := newIncidentRig(t)
	repo.Incidents[1] = &incident.Incident{ID: 1, Title: "t", Status: incident.StatusOpen, Severity: "warning"}
	repo.NextID = 2

	rec := doJSON(t, router, http.MethodPatch, "/api/v1/incidents/1/status", `{"status":"acknowledged"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if repo.Incidents[1].Status != incident.StatusAcknowledged {
		t.Errorf("incident status = %q", repo.Incidents[1].Status)
	}

	// Illegal transition surfaces as a conflict.
	rec = doJSON(t, router, http.MethodPatch, "/api/v1/incidents/1/status", `{"status":"open"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("illegal transition status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPatch, "/api/v1/incidents/1/status", `{"status":"snoozed"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown status = %d, want 400", rec.Code)
	}
}

func TestBulkResolveEndpoint(t *testing.T) {
	router, repo := newIncidentRig(t)
	repo.Incidents[1] = &incident.Incident{ID: 1, Title: "a", Status: incident.StatusOpen, Severity: "warning"}
	repo.Incidents[2] = &incident.Incident{ID: 2, Title: "b", Status: incident.StatusResolved, Severity: "warning"}
	repo.NextID = 3

	rec := doJSON(t, router, http.MethodPost, "/api/v1/incidents/bulk_resolve", `{"ids":[1,2]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			Updated int64 `json:"updated"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Updated != 1 {
		t.Errorf("updated = %d, want 1", resp.Data.Updated)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/v1/incidents/bulk_resolve", `{"ids":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty ids status = %d, want 400", rec.Code)
	}
}

func TestGetIncidentEndpointNotFound(t *testing.T) {
	router, _ := newIncidentRig(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/incidents/99", "")
	// Mock repo returns a plain error; the handler downgrades it to 500.
	// The database-backed repo maps missing rows to 404, covered in its
	// own tests.
	if rec.Code == http.StatusOK {
		t.Errorf("status = %d for missing incident", rec.Code)
	}
}
