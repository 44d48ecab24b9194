package services

import (
	"context"
	"errors"
	"time"

	"github.com/dishom/opsboard/internal/domain/metric"
	"github.com/dishom/opsboard/internal/pkg/logger"
)

// MetricsService computes dashboard trends on demand: for every
// registered metric source it reads the current window and the window
// before it and reports both values with a percentage change. Sources
// that fail or time out are left out of the result rather than failing
// the whole computation.
type MetricsService struct {
	registry     *metric.Registry
	logger       *logger.Logger
	queryTimeout time.Duration
}

// NewMetricsService creates a new metrics aggregator
func NewMetricsService(registry *metric.Registry, log *logger.Logger, queryTimeout time.Duration) *MetricsService {
	return &MetricsService{
		registry:     registry,
		logger:       log,
		queryTimeout: queryTimeout,
	}
}

// Compute returns a trend per registered source over the given range,
// keyed by source name. The previous window immediately precedes the
// current one and has the same length.
func (s *MetricsService) Compute(ctx context.Context, rng time.Duration) map[string]metric.Trend {
	end := time.Now().UTC()
	curStart := end.Add(-rng)
	prevStart := end.Add(-2 * rng)

	out := make(map[string]metric.Trend)
	for _, name := range s.registry.Names() {
		src, ok := s.registry.Lookup(name)
		if !ok {
			continue
		}

		current, err := s.querySource(ctx, src, curStart, end)
		if err != nil {
			s.skip(name, err)
			continue
		}
		previous, err := s.querySource(ctx, src, prevStart, curStart)
		if err != nil {
			s.skip(name, err)
			continue
		}

		out[name] = metric.NewTrend(current, previous)
	}
	return out
}

func (s *MetricsService) querySource(ctx context.Context, src metric.Source, start, end time.Time) (float64, error) {
	qctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	return src.Query(qctx, start, end)
}

func (s *MetricsService) skip(name string, err error) {
	if errors.Is(err, metric.ErrUnavailable) {
		return
	}
	s.logger.WithFields(map[string]interface{}{
		"metric": name,
	}).WithError(err).Warn("metric source query failed, omitted from trends")
}
