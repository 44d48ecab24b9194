package services

import (
	"context"
	"fmt"

	"github.com/dishom/opsboard/internal/domain/metric"
	"github.com/dishom/opsboard/internal/domain/rule"
	"github.com/dishom/opsboard/internal/pkg/errors"
	"github.com/dishom/opsboard/internal/pkg/logger"
)

// RuleService implements rule.Service
type RuleService struct {
	repo     rule.Repository
	registry *metric.Registry
	logger   *logger.Logger
}

// NewRuleService creates a new alert rule service
func NewRuleService(repo rule.Repository, registry *metric.Registry, log *logger.Logger) rule.Service {
	return &RuleService{
		repo:     repo,
		registry: registry,
		logger:   log,
	}
}

// Create validates and creates a new alert rule
func (s *RuleService) Create(ctx context.Context, r *rule.AlertRule) (int64, error) {
	if r.Severity == "" {
		r.Severity = rule.SeverityWarning
	}
	if r.WindowMinutes == 0 {
		r.WindowMinutes = 5
	}
	if err := s.validate(r); err != nil {
		return 0, err
	}

	id, err := s.repo.Create(ctx, r)
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to create alert rule")
		return 0, err
	}

	s.logger.WithFields(map[string]interface{}{
		"rule_id":  id,
		"metric":   r.MetricName,
		"operator": r.Operator.Symbol(),
		"severity": r.Severity,
	}).Info("Alert rule created")

	return id, nil
}

// GetByID retrieves an alert rule by ID
func (s *RuleService) GetByID(ctx context.Context, id int64) (*rule.AlertRule, error) {
	return s.repo.GetByID(ctx, id)
}

// Update validates and updates an existing alert rule
func (s *RuleService) Update(ctx context.Context, r *rule.AlertRule) error {
	if err := s.validate(r); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, r); err != nil {
		s.logger.ErrorWithErr(err, "Failed to update alert rule")
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"rule_id": r.ID,
		"metric":  r.MetricName,
		"active":  r.Active,
	}).Info("Alert rule updated")

	return nil
}

// Delete deletes an alert rule
func (s *RuleService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithFields(map[string]interface{}{
		"rule_id": id,
	}).Info("Alert rule deleted")
	return nil
}

// List retrieves alert rules with pagination
func (s *RuleService) List(ctx context.Context, limit, offset int) ([]*rule.AlertRule, int64, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *RuleService) validate(r *rule.AlertRule) error {
	if r.Name == "" {
		return errors.ValidationError("Invalid alert rule", "name is required")
	}
	if !r.Operator.Valid() {
		return errors.ValidationError("Invalid alert rule",
			fmt.Sprintf("unknown operator %q", r.Operator))
	}
	if r.WindowMinutes <= 0 {
		return errors.ValidationError("Invalid alert rule", "window_minutes must be positive")
	}
	if r.Severity != "" && !rule.ValidSeverity(r.Severity) {
		return errors.ValidationError("Invalid alert rule",
			fmt.Sprintf("unknown severity %q", r.Severity))
	}
	if _, ok := s.registry.Lookup(r.MetricName); !ok {
		return errors.ValidationError("Invalid alert rule",
			fmt.Sprintf("metric %q is not registered in this deployment", r.MetricName))
	}
	return nil
}
