package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dishom/opsboard/internal/api/middleware"
	"github.com/dishom/opsboard/internal/auth"
	"github.com/dishom/opsboard/internal/domain/audit"
	"github.com/dishom/opsboard/internal/pkg/errors"
	"github.com/dishom/opsboard/internal/pkg/logger"
	"github.com/dishom/opsboard/internal/pkg/utils"
)

// recentEventsLimit bounds the live-events catch-up endpoint.
const recentEventsLimit = 100

// exportBatchSize caps one CSV export.
const exportBatchSize = 10000

type AuditHandler struct {
	service audit.Service
	logger  *logger.Logger
}

func NewAuditHandler(service audit.Service, log *logger.Logger) *AuditHandler {
	return &AuditHandler{service: service, logger: log}
}

// List returns audit log entries with filtering and pagination
// @Summary List audit logs
// @Description Get a paginated, filtered view of the audit trail. Pass export=csv for a CSV download.
// @Tags Audit
// @Produce json
// @Param start query string false "Entries at or after this RFC3339 timestamp"
// @Param end query string false "Entries before this RFC3339 timestamp"
// @Param user query int false "Filter by acting user ID"
// @Param action query string false "Filter by action kind"
// @Param app query string false "Filter by subsystem"
// @Param model query string false "Filter by entity kind"
// @Param q query string false "Substring match on user agent and metadata"
// @Param export query string false "Set to csv for CSV export"
// @Param page query int false "Page number (default: 1)"
// @Param page_size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} utils.PaginatedResponse{data=[]audit.View} "Audit log entries"
// @Failure 400 {object} utils.ErrorResponse "Invalid filter"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /logs [get]
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	caps, _ := middleware.GetCapabilities(r)

	filter, err := parseAuditFilter(r)
	if err != nil {
		utils.WriteError(w, errors.BadRequest(err.Error()))
		return
	}

	if r.URL.Query().Get("export") == "csv" {
		h.exportCSV(w, r, caps, filter)
		return
	}

	p := utils.ParsePaginationParams(r)
	views, total, err := h.service.List(r.Context(), caps, filter, p.PageSize, p.Offset)
	if err != nil {
		writeServiceError(w, err, "Failed to list audit logs")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(views, p.Page, p.PageSize, total))
}

// exportCSV streams the filtered trail as a CSV download. Pagination
// does not apply; the export carries the whole filtered result.
func (h *AuditHandler) exportCSV(w http.ResponseWriter, r *http.Request, caps auth.Capabilities, filter audit.Filter) {
	views, _, err := h.service.List(r.Context(), caps, filter, exportBatchSize, 0)
	if err != nil {
		writeServiceError(w, err, "Failed to export audit logs")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="audit_logs.csv"`)

	cw := csv.NewWriter(w)
	defer cw.Flush()

	cw.Write([]string{"timestamp", "user", "action_type", "app_label", "model_name", "object_id", "ip_address"})
	for _, v := range views {
		cw.Write([]string{
			utils.FormatTimestamp(v.Timestamp),
			formatNullableInt(v.ActorID),
			v.Action,
			v.Subsystem,
			v.EntityKind,
			formatNullableStr(v.EntityID),
			formatNullableStr(v.ClientIP),
		})
	}
}

// Timeline returns one entity's full audit trail, oldest first
// @Summary Entity timeline
// @Description Get the chronological audit trail for a single entity
// @Tags Audit
// @Produce json
// @Param app query string true "Subsystem label"
// @Param model query string true "Entity kind"
// @Param object_id query string true "Entity ID"
// @Success 200 {object} utils.SuccessResponse{data=[]audit.View} "Entity trail"
// @Failure 400 {object} utils.ErrorResponse "Missing selector"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /logs/timeline [get]
func (h *AuditHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	caps, _ := middleware.GetCapabilities(r)

	q := r.URL.Query()
	app, model, objectID := q.Get("app"), q.Get("model"), q.Get("object_id")
	if app == "" || model == "" || objectID == "" {
		utils.WriteError(w, errors.BadRequest("app, model and object_id are required"))
		return
	}

	views, err := h.service.Timeline(r.Context(), caps, app, model, objectID)
	if err != nil {
		writeServiceError(w, err, "Failed to load entity timeline")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, views)
}

// RecentEvents returns the newest mutation events for live-feed catch-up
// @Summary Recent mutation events
// @Description Get the newest create/update/delete events, newest first
// @Tags Audit
// @Produce json
// @Param app query string false "Filter by subsystem"
// @Success 200 {object} utils.SuccessResponse{data=[]audit.View} "Recent events"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /live-events [get]
func (h *AuditHandler) RecentEvents(w http.ResponseWriter, r *http.Request) {
	caps, _ := middleware.GetCapabilities(r)

	views, err := h.service.Recent(r.Context(), caps, r.URL.Query().Get("app"), recentEventsLimit)
	if err != nil {
		writeServiceError(w, err, "Failed to load recent events")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, views)
}

func parseAuditFilter(r *http.Request) (audit.Filter, error) {
	q := r.URL.Query()
	var filter audit.Filter

	if s := q.Get("start"); s != "" {
		t, err := utils.ParseTimestamp(s)
		if err != nil {
			return filter, fmt.Errorf("invalid start timestamp: %s", s)
		}
		filter.Start = &t
	}
	if s := q.Get("end"); s != "" {
		t, err := utils.ParseTimestamp(s)
		if err != nil {
			return filter, fmt.Errorf("invalid end timestamp: %s", s)
		}
		filter.End = &t
	}
	if s := q.Get("user"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid user id: %s", s)
		}
		filter.ActorID = &id
	}
	if s := q.Get("action"); s != "" {
		if !audit.ValidAction(s) {
			return filter, fmt.Errorf("unknown action type: %s", s)
		}
		filter.Action = s
	}
	filter.Subsystem = q.Get("app")
	filter.EntityKind = q.Get("model")
	filter.Search = q.Get("q")

	return filter, nil
}

func formatNullableInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func formatNullableStr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
