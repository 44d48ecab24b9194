package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dishom/opsboard/internal/api/dto"
	"github.com/dishom/opsboard/internal/pkg/errors"
	"github.com/dishom/opsboard/internal/pkg/logger"
	"github.com/dishom/opsboard/internal/pkg/utils"
	"github.com/dishom/opsboard/internal/pkg/validator"
	"github.com/dishom/opsboard/internal/services"
)

type ActionsHandler struct {
	service   *services.ActionsService
	logger    *logger.Logger
	validator *validator.Validator
}

func NewActionsHandler(service *services.ActionsService, log *logger.Logger, val *validator.Validator) *ActionsHandler {
	return &ActionsHandler{service: service, logger: log, validator: val}
}

// Execute runs an admin action against a target entity
// @Summary Execute admin action
// @Description Run one of the remedial admin actions: force_logout, flag_enrollment, resend_invoice
// @Tags Actions
// @Accept json
// @Produce json
// @Param request body dto.ExecuteActionRequest true "Action and target"
// @Success 200 {object} utils.SuccessResponse "Action result"
// @Failure 400 {object} utils.ErrorResponse "Unknown action or invalid request"
// @Failure 404 {object} utils.ErrorResponse "Target not found"
// @Failure 409 {object} utils.ErrorResponse "Action unavailable in this deployment"
// @Security BearerAuth
// @Router /actions [post]
func (h *ActionsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req dto.ExecuteActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if verrs := h.validator.Validate(req); len(verrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", verrs))
		return
	}

	result, err := h.service.Execute(r.Context(), services.ActionRequest{
		Action:   req.Action,
		TargetID: req.TargetID,
		ActorID:  actorFromRequest(r),
		ClientIP: clientIP(r),
	})
	if err != nil {
		writeServiceError(w, err, "Failed to execute action")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, result)
}
