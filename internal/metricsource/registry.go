// Package metricsource wires the metric registry to whichever optional
// domain tables exist in the deployment. Larger installs carry users,
// payments, enrollments and live viewer tables next to the engine's own
// schema; smaller ones carry a subset. Presence is probed once at
// process start and a missing table simply leaves its metrics
// unregistered.
package metricsource

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dishom/opsboard/internal/domain/metric"
	"github.com/dishom/opsboard/internal/pkg/logger"
)

// tableSources maps each optional domain table to the metric queries it
// backs. Window placeholders: $1 = start, $2 = end.
var tableSources = []struct {
	table   string
	metrics map[string]string
}{
	{
		table: "users",
		metrics: map[string]string{
			"active_users": `SELECT COUNT(*) FROM users
				WHERE is_active = TRUE AND last_login >= $1 AND last_login < $2`,
			"new_signups": `SELECT COUNT(*) FROM users
				WHERE date_joined >= $1 AND date_joined < $2`,
		},
	},
	{
		table: "payments",
		metrics: map[string]string{
			"revenue": `SELECT COALESCE(SUM(amount), 0) FROM payments
				WHERE status = 'SUCCESS' AND timestamp >= $1 AND timestamp < $2`,
			"failed_payments": `SELECT COUNT(*) FROM payments
				WHERE status = 'FAILED' AND timestamp >= $1 AND timestamp < $2`,
		},
	},
	{
		table: "enrollments",
		metrics: map[string]string{
			"enrollments": `SELECT COUNT(*) FROM enrollments
				WHERE created_at >= $1 AND created_at < $2`,
			"completions": `SELECT COUNT(*) FROM enrollments
				WHERE status = 'completed' AND updated_at >= $1 AND updated_at < $2`,
		},
	},
	{
		table: "live_viewers",
		metrics: map[string]string{
			"concurrent_live_viewers": `SELECT COALESCE(SUM(viewer_count), 0) FROM live_viewers
				WHERE timestamp >= $1 AND timestamp < $2`,
		},
	},
}

// RegisterAll probes the optional domain tables and registers a source
// for every metric whose table is present.
func RegisterAll(ctx context.Context, db *sql.DB, driver string, reg *metric.Registry, log *logger.Logger) error {
	for _, ts := range tableSources {
		present, err := TableExists(ctx, db, driver, ts.table)
		if err != nil {
			return fmt.Errorf("probing table %s: %w", ts.table, err)
		}
		if !present {
			log.WithFields(map[string]interface{}{
				"table": ts.table,
			}).Info("domain table absent, metrics unregistered")
			continue
		}
		for name, query := range ts.metrics {
			reg.Register(&sqlSource{name: name, query: query, db: db})
		}
	}

	log.WithFields(map[string]interface{}{
		"metrics": reg.Names(),
	}).Info("metric sources registered")
	return nil
}

// TableExists reports whether an optional domain table is present in
// the connected database.
func TableExists(ctx context.Context, db *sql.DB, driver, table string) (bool, error) {
	var query string
	switch driver {
	case "sqlite":
		query = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = $1`
	default:
		query = `SELECT COUNT(*) FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1`
	}

	var n int
	if err := db.QueryRowContext(ctx, query, table).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
