package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dishom/opsboard/internal/domain/incident"
	"github.com/dishom/opsboard/internal/domain/metric"
	"github.com/dishom/opsboard/internal/domain/rule"
	"github.com/dishom/opsboard/internal/livefeed"
	"github.com/dishom/opsboard/internal/pkg/logger"
	"github.com/dishom/opsboard/internal/pkg/metrics"
)

// EvaluatorService runs the alert rule evaluation tick: every active
// rule's metric is read over its lookback window and compared against
// its threshold, opening an incident on the first trip. The evaluator
// never auto-resolves; closing an incident is a human action.
type EvaluatorService struct {
	rules        rule.Repository
	incidents    incident.Repository
	registry     *metric.Registry
	hub          *livefeed.Hub
	logger       *logger.Logger
	queryTimeout time.Duration

	mu        sync.Mutex
	ruleLocks map[int64]*sync.Mutex
}

// NewEvaluatorService creates a new evaluator
func NewEvaluatorService(
	rules rule.Repository,
	incidents incident.Repository,
	registry *metric.Registry,
	hub *livefeed.Hub,
	log *logger.Logger,
	queryTimeout time.Duration,
) *EvaluatorService {
	return &EvaluatorService{
		rules:        rules,
		incidents:    incidents,
		registry:     registry,
		hub:          hub,
		logger:       log,
		queryTimeout: queryTimeout,
		ruleLocks:    make(map[int64]*sync.Mutex),
	}
}

// EvaluateAll runs one evaluation tick over every active rule. Rule
// failures are isolated: one bad rule or source never aborts the tick.
func (s *EvaluatorService) EvaluateAll(ctx context.Context) error {
	start := time.Now()
	defer func() { metrics.RecordEvaluatorTick(time.Since(start)) }()

	active, err := s.rules.ListActive(ctx)
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to load active alert rules")
		return err
	}

	for _, r := range active {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.evaluateRule(ctx, r)
	}

	return nil
}

func (s *EvaluatorService) evaluateRule(ctx context.Context, r *rule.AlertRule) {
	src, ok := s.registry.Lookup(r.MetricName)
	if !ok {
		// Not an error: the metric's domain module is absent here.
		s.logger.WithFields(map[string]interface{}{
			"rule_id": r.ID,
			"metric":  r.MetricName,
		}).Debug("metric source not registered, rule skipped")
		return
	}

	end := time.Now().UTC()
	windowStart := end.Add(-r.Window())

	qctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	value, err := src.Query(qctx, windowStart, end)
	cancel()
	if err != nil {
		// Unavailable and timed-out sources are both skips.
		s.logger.WithFields(map[string]interface{}{
			"rule_id": r.ID,
			"metric":  r.MetricName,
		}).WithError(err).Warn("metric source query failed, rule skipped")
		return
	}

	if !r.Operator.Compare(value, r.Threshold) {
		return
	}

	// Check-then-create must be atomic against overlapping ticks.
	lock := s.lockForRule(r.ID)
	lock.Lock()
	defer lock.Unlock()

	exists, err := s.incidents.ExistsActiveForRule(ctx, r.ID)
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to check active incidents for rule")
		return
	}
	if exists {
		// Still tripped, already alarmed.
		return
	}

	s.openIncident(ctx, r, value)
}

func (s *EvaluatorService) openIncident(ctx context.Context, r *rule.AlertRule, value float64) {
	meta, _ := json.Marshal(map[string]interface{}{
		"metric":         r.MetricName,
		"value":          value,
		"threshold":      r.Threshold,
		"operator":       r.Operator.Symbol(),
		"window_minutes": r.WindowMinutes,
	})

	ruleID := r.ID
	inc := &incident.Incident{
		Title: fmt.Sprintf("%s: %s %s %g (observed %g)",
			r.Name, r.MetricName, r.Operator.Symbol(), r.Threshold, value),
		Status:   incident.StatusOpen,
		Severity: r.Severity,
		RuleID:   &ruleID,
		Metadata: meta,
	}

	if _, err := s.incidents.Create(ctx, inc); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"rule_id": r.ID,
		}).ErrorWithErr(err, "Failed to open incident")
		return
	}

	metrics.RecordIncidentOpened(inc.Severity)
	s.hub.Publish(livefeed.TopicIncidents, livefeed.Message{
		Type: livefeed.TypeIncidentOpen,
		Data: inc,
	})

	s.logger.WithFields(map[string]interface{}{
		"incident_id": inc.ID,
		"rule_id":     r.ID,
		"metric":      r.MetricName,
		"value":       value,
		"severity":    inc.Severity,
	}).Warn("Incident opened")
}

func (s *EvaluatorService) lockForRule(id int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.ruleLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.ruleLocks[id] = lock
	}
	return lock
}
