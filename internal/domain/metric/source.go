package metric

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned by a Source whose backing domain store does
// not exist in this deployment. It is not a failure: callers skip the
// source.
var ErrUnavailable = errors.New("metric source unavailable")

// Source is a named, optional read accessor computing a numeric value
// over a half-open time window [start, end) from one domain data store.
type Source interface {
	// Name returns the logical metric name, e.g. "failed_payments".
	Name() string

	// Query computes the metric value over [start, end). It returns
	// ErrUnavailable when the backing store is absent.
	Query(ctx context.Context, start, end time.Time) (float64, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc struct {
	MetricName string
	Fn         func(ctx context.Context, start, end time.Time) (float64, error)
}

func (s SourceFunc) Name() string { return s.MetricName }

func (s SourceFunc) Query(ctx context.Context, start, end time.Time) (float64, error) {
	return s.Fn(ctx, start, end)
}
