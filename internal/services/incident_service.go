package services

import (
	"context"
	"fmt"

	"github.com/dishom/opsboard/internal/domain/incident"
	"github.com/dishom/opsboard/internal/pkg/errors"
	"github.com/dishom/opsboard/internal/pkg/logger"
)

// IncidentService implements incident.Service
type IncidentService struct {
	repo   incident.Repository
	logger *logger.Logger
}

// NewIncidentService creates a new incident service
func NewIncidentService(repo incident.Repository, log *logger.Logger) incident.Service {
	return &IncidentService{
		repo:   repo,
		logger: log,
	}
}

// Create creates a manually reported incident
func (s *IncidentService) Create(ctx context.Context, inc *incident.Incident) (int64, error) {
	if inc.Title == "" {
		return 0, errors.ValidationError("Invalid incident", "title is required")
	}
	if inc.Status == "" {
		inc.Status = incident.StatusOpen
	}
	if !incident.ValidStatus(inc.Status) {
		return 0, errors.ValidationError("Invalid incident",
			fmt.Sprintf("unknown status %q", inc.Status))
	}

	id, err := s.repo.Create(ctx, inc)
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to create incident")
		return 0, err
	}

	s.logger.WithFields(map[string]interface{}{
		"incident_id": id,
		"severity":    inc.Severity,
	}).Info("Incident created")

	return id, nil
}

// GetByID retrieves an incident by ID
func (s *IncidentService) GetByID(ctx context.Context, id int64) (*incident.Incident, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves incidents with pagination
func (s *IncidentService) List(ctx context.Context, filter incident.Filter, limit, offset int) ([]*incident.Incident, int64, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

// UpdateStatus applies a lifecycle transition
func (s *IncidentService) UpdateStatus(ctx context.Context, id int64, status string) error {
	if !incident.ValidStatus(status) {
		return errors.ValidationError("Invalid incident status",
			fmt.Sprintf("unknown status %q", status))
	}

	inc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if inc.Status == status {
		return nil
	}
	if !incident.CanTransition(inc.Status, status) {
		return errors.Conflict(fmt.Sprintf("cannot move incident from %s to %s", inc.Status, status))
	}

	inc.Status = status
	if err := s.repo.Update(ctx, inc); err != nil {
		s.logger.ErrorWithErr(err, "Failed to update incident status")
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"incident_id": id,
		"status":      status,
	}).Info("Incident status updated")

	return nil
}

// Assign sets the assignee and optional notes
func (s *IncidentService) Assign(ctx context.Context, id int64, assignedTo *int64, notes string) error {
	inc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	inc.AssignedTo = assignedTo
	if notes != "" {
		inc.Notes = notes
	}

	return s.repo.Update(ctx, inc)
}

// BulkResolve resolves the listed incidents and returns the count
func (s *IncidentService) BulkResolve(ctx context.Context, ids []int64) (int64, error) {
	updated, err := s.repo.BulkResolve(ctx, ids)
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to bulk resolve incidents")
		return 0, err
	}

	s.logger.WithFields(map[string]interface{}{
		"requested": len(ids),
		"updated":   updated,
	}).Info("Incidents bulk resolved")

	return updated, nil
}
