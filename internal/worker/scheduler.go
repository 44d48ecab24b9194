package worker

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/dishom/opsboard/internal/domain/audit"
	"github.com/dishom/opsboard/internal/pkg/logger"
	"github.com/dishom/opsboard/internal/services"
)

// Scheduler runs the engine's background jobs on cron schedules: the
// alert rule evaluation tick and the nightly retention purge. Job
// failures are logged and the job simply runs again at its next slot.
type Scheduler struct {
	evaluator         *services.EvaluatorService
	audit             audit.Service
	evaluatorSchedule string
	retentionSchedule string
	cron              *cron.Cron
	logger            *logger.Logger
}

// NewScheduler creates a new background job scheduler
func NewScheduler(
	evaluator *services.EvaluatorService,
	auditSvc audit.Service,
	evaluatorSchedule string,
	retentionSchedule string,
	log *logger.Logger,
) *Scheduler {
	return &Scheduler{
		evaluator:         evaluator,
		audit:             auditSvc,
		evaluatorSchedule: evaluatorSchedule,
		retentionSchedule: retentionSchedule,
		cron:              cron.New(),
		logger:            log,
	}
}

// Start registers the jobs and begins the schedule. The scheduler stops
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.evaluatorSchedule, func() { s.runEvaluation(ctx) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.retentionSchedule, func() { s.runRetention(ctx) }); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"evaluator_schedule": s.evaluatorSchedule,
		"retention_schedule": s.retentionSchedule,
	}).Info("Starting background scheduler")
	s.cron.Start()

	go func() {
		<-ctx.Done()
		stopped := s.cron.Stop()
		<-stopped.Done()
		s.logger.Info("Background scheduler stopped")
	}()

	return nil
}

func (s *Scheduler) runEvaluation(ctx context.Context) {
	if err := s.evaluator.EvaluateAll(ctx); err != nil {
		s.logger.ErrorWithErr(err, "Alert evaluation tick failed")
	}
}

func (s *Scheduler) runRetention(ctx context.Context) {
	deleted, err := s.audit.Purge(ctx)
	if err != nil {
		s.logger.ErrorWithErr(err, "Retention purge failed")
		return
	}
	s.logger.WithFields(map[string]interface{}{
		"deleted": deleted,
	}).Info("Retention purge completed")
}
