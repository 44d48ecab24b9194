package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dishom/opsboard/internal/api/dto"
	"github.com/dishom/opsboard/internal/domain/rule"
	"github.com/dishom/opsboard/internal/pkg/errors"
	"github.com/dishom/opsboard/internal/pkg/logger"
	"github.com/dishom/opsboard/internal/pkg/utils"
	"github.com/dishom/opsboard/internal/pkg/validator"
)

type RuleHandler struct {
	service   rule.Service
	logger    *logger.Logger
	validator *validator.Validator
}

func NewRuleHandler(service rule.Service, log *logger.Logger, val *validator.Validator) *RuleHandler {
	return &RuleHandler{service: service, logger: log, validator: val}
}

// List returns all alert rules with pagination
// @Summary List alert rules
// @Tags Alerts
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param page_size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} utils.PaginatedResponse{data=[]rule.AlertRule} "Alert rules"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /alerts [get]
func (h *RuleHandler) List(w http.ResponseWriter, r *http.Request) {
	p := utils.ParsePaginationParams(r)

	rules, total, err := h.service.List(r.Context(), p.PageSize, p.Offset)
	if err != nil {
		writeServiceError(w, err, "Failed to list alert rules")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(rules, p.Page, p.PageSize, total))
}

// Get returns a single alert rule
// @Summary Get alert rule
// @Tags Alerts
// @Produce json
// @Param id path int true "Rule ID"
// @Success 200 {object} rule.AlertRule "Alert rule"
// @Failure 404 {object} utils.ErrorResponse "Rule not found"
// @Security BearerAuth
// @Router /alerts/{id} [get]
func (h *RuleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	out, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Failed to get alert rule")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, out)
}

// Create creates a new alert rule
// @Summary Create alert rule
// @Tags Alerts
// @Accept json
// @Produce json
// @Param request body dto.CreateAlertRuleRequest true "Rule definition"
// @Success 201 {object} map[string]int64 "Rule created"
// @Failure 400 {object} utils.ErrorResponse "Invalid request or validation error"
// @Security BearerAuth
// @Router /alerts [post]
func (h *RuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAlertRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if verrs := h.validator.Validate(req); len(verrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", verrs))
		return
	}

	newRule := &rule.AlertRule{
		Name:          req.Name,
		MetricName:    req.MetricName,
		Operator:      rule.Operator(req.Operator),
		Threshold:     req.Threshold,
		WindowMinutes: req.WindowMinutes,
		Severity:      req.Severity,
		Active:        true,
		CreatedBy:     actorFromRequest(r),
	}
	if req.Active != nil {
		newRule.Active = *req.Active
	}
	if len(req.Recipients) > 0 {
		newRule.Recipients, _ = json.Marshal(req.Recipients)
	}

	id, err := h.service.Create(r.Context(), newRule)
	if err != nil {
		writeServiceError(w, err, "Failed to create alert rule")
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, map[string]int64{"id": id})
}

// Update modifies an existing alert rule
// @Summary Update alert rule
// @Tags Alerts
// @Accept json
// @Produce json
// @Param id path int true "Rule ID"
// @Param request body dto.UpdateAlertRuleRequest true "Fields to change"
// @Success 200 {object} rule.AlertRule "Updated rule"
// @Failure 400 {object} utils.ErrorResponse "Invalid request or validation error"
// @Failure 404 {object} utils.ErrorResponse "Rule not found"
// @Security BearerAuth
// @Router /alerts/{id} [put]
func (h *RuleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	var req dto.UpdateAlertRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if verrs := h.validator.Validate(req); len(verrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", verrs))
		return
	}

	existing, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Failed to get alert rule")
		return
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.MetricName != nil {
		existing.MetricName = *req.MetricName
	}
	if req.Operator != nil {
		existing.Operator = rule.Operator(*req.Operator)
	}
	if req.Threshold != nil {
		existing.Threshold = *req.Threshold
	}
	if req.WindowMinutes != nil {
		existing.WindowMinutes = *req.WindowMinutes
	}
	if req.Severity != nil {
		existing.Severity = *req.Severity
	}
	if req.Active != nil {
		existing.Active = *req.Active
	}
	if req.Recipients != nil {
		existing.Recipients, _ = json.Marshal(req.Recipients)
	}

	if err := h.service.Update(r.Context(), existing); err != nil {
		writeServiceError(w, err, "Failed to update alert rule")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, existing)
}

// Delete removes an alert rule
// @Summary Delete alert rule
// @Tags Alerts
// @Param id path int true "Rule ID"
// @Success 200 {object} utils.SuccessResponse "Rule deleted"
// @Failure 404 {object} utils.ErrorResponse "Rule not found"
// @Security BearerAuth
// @Router /alerts/{id} [delete]
func (h *RuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "Failed to delete alert rule")
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Alert rule deleted", nil)
}
