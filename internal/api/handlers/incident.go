package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dishom/opsboard/internal/api/dto"
	"github.com/dishom/opsboard/internal/domain/incident"
	"github.com/dishom/opsboard/internal/pkg/errors"
	"github.com/dishom/opsboard/internal/pkg/logger"
	"github.com/dishom/opsboard/internal/pkg/utils"
	"github.com/dishom/opsboard/internal/pkg/validator"
)

type IncidentHandler struct {
	service   incident.Service
	logger    *logger.Logger
	validator *validator.Validator
}

func NewIncidentHandler(service incident.Service, log *logger.Logger, val *validator.Validator) *IncidentHandler {
	return &IncidentHandler{service: service, logger: log, validator: val}
}

// List returns incidents with filtering and pagination
// @Summary List incidents
// @Tags Incidents
// @Produce json
// @Param status query string false "Filter by status"
// @Param severity query string false "Filter by severity"
// @Param page query int false "Page number (default: 1)"
// @Param page_size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} utils.PaginatedResponse{data=[]incident.Incident} "Incidents"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /incidents [get]
func (h *IncidentHandler) List(w http.ResponseWriter, r *http.Request) {
	p := utils.ParsePaginationParams(r)
	filter := incident.Filter{
		Status:   r.URL.Query().Get("status"),
		Severity: r.URL.Query().Get("severity"),
	}

	incidents, total, err := h.service.List(r.Context(), filter, p.PageSize, p.Offset)
	if err != nil {
		writeServiceError(w, err, "Failed to list incidents")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(incidents, p.Page, p.PageSize, total))
}

// Get returns a single incident
// @Summary Get incident
// @Tags Incidents
// @Produce json
// @Param id path int true "Incident ID"
// @Success 200 {object} incident.Incident "Incident"
// @Failure 404 {object} utils.ErrorResponse "Incident not found"
// @Security BearerAuth
// @Router /incidents/{id} [get]
func (h *IncidentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	inc, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Failed to get incident")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, inc)
}

// Create files a manually reported incident
// @Summary Create incident
// @Tags Incidents
// @Accept json
// @Produce json
// @Param request body dto.CreateIncidentRequest true "Incident details"
// @Success 201 {object} map[string]int64 "Incident created"
// @Failure 400 {object} utils.ErrorResponse "Invalid request or validation error"
// @Security BearerAuth
// @Router /incidents [post]
func (h *IncidentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if verrs := h.validator.Validate(req); len(verrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", verrs))
		return
	}

	id, err := h.service.Create(r.Context(), &incident.Incident{
		Title:     req.Title,
		Severity:  req.Severity,
		Notes:     req.Notes,
		CreatedBy: actorFromRequest(r),
	})
	if err != nil {
		writeServiceError(w, err, "Failed to create incident")
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, map[string]int64{"id": id})
}

// UpdateStatus applies a lifecycle transition
// @Summary Update incident status
// @Tags Incidents
// @Accept json
// @Produce json
// @Param id path int true "Incident ID"
// @Param request body dto.UpdateIncidentStatusRequest true "New status"
// @Success 200 {object} utils.SuccessResponse "Status updated"
// @Failure 400 {object} utils.ErrorResponse "Invalid status"
// @Failure 404 {object} utils.ErrorResponse "Incident not found"
// @Failure 409 {object} utils.ErrorResponse "Illegal transition"
// @Security BearerAuth
// @Router /incidents/{id}/status [patch]
func (h *IncidentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	var req dto.UpdateIncidentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if verrs := h.validator.Validate(req); len(verrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", verrs))
		return
	}

	if err := h.service.UpdateStatus(r.Context(), id, req.Status); err != nil {
		writeServiceError(w, err, "Failed to update incident status")
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Incident status updated", nil)
}

// Assign sets the incident assignee
// @Summary Assign incident
// @Tags Incidents
// @Accept json
// @Produce json
// @Param id path int true "Incident ID"
// @Param request body dto.AssignIncidentRequest true "Assignee"
// @Success 200 {object} utils.SuccessResponse "Incident assigned"
// @Failure 404 {object} utils.ErrorResponse "Incident not found"
// @Security BearerAuth
// @Router /incidents/{id}/assign [patch]
func (h *IncidentHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	var req dto.AssignIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if err := h.service.Assign(r.Context(), id, req.AssignedTo, req.Notes); err != nil {
		writeServiceError(w, err, "Failed to assign incident")
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Incident assigned", nil)
}

// BulkResolve resolves a batch of incidents
// @Summary Bulk resolve incidents
// @Tags Incidents
// @Accept json
// @Produce json
// @Param request body dto.BulkResolveRequest true "Incident IDs"
// @Success 200 {object} dto.BulkResolveResponse "Resolution count"
// @Failure 400 {object} utils.ErrorResponse "Invalid request"
// @Security BearerAuth
// @Router /incidents/bulk_resolve [post]
func (h *IncidentHandler) BulkResolve(w http.ResponseWriter, r *http.Request) {
	var req dto.BulkResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if verrs := h.validator.Validate(req); len(verrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", verrs))
		return
	}

	updated, err := h.service.BulkResolve(r.Context(), req.IDs)
	if err != nil {
		writeServiceError(w, err, "Failed to bulk resolve incidents")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.BulkResolveResponse{Updated: updated})
}
