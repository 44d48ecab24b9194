package metricsource

import (
	"context"
	"database/sql"
	"time"

	"github.com/dishom/opsboard/internal/domain/metric"
	"github.com/dishom/opsboard/internal/pkg/utils"
)

// sqlSource computes a metric with a single aggregate query over the
// half-open window [start, end). Placeholders: $1 = start, $2 = end.
type sqlSource struct {
	name  string
	query string
	db    *sql.DB
}

func (s *sqlSource) Name() string { return s.name }

func (s *sqlSource) Query(ctx context.Context, start, end time.Time) (float64, error) {
	var value sql.NullFloat64
	err := s.db.QueryRowContext(ctx, s.query,
		utils.FormatTimestamp(start), utils.FormatTimestamp(end),
	).Scan(&value)
	if err != nil {
		return 0, err
	}
	if !value.Valid {
		return 0, nil
	}
	return value.Float64, nil
}

var _ metric.Source = (*sqlSource)(nil)
