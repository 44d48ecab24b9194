package services

import (
	"context"
	"time"

	"github.com/dishom/opsboard/internal/domain/audit"
	"github.com/dishom/opsboard/internal/pkg/logger"
	"github.com/dishom/opsboard/internal/pkg/metrics"
)

// purgeAuditLogs hard-deletes entries past the retention horizon.
// Idempotent: a second run with no new writes deletes nothing.
func purgeAuditLogs(ctx context.Context, repo audit.Repository, retentionDays int, log *logger.Logger) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	deleted, err := repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.ErrorWithErr(err, "Failed to purge audit log entries")
		return 0, err
	}

	if deleted > 0 {
		metrics.RecordPurgedEntries(deleted)
	}
	log.WithFields(map[string]interface{}{
		"deleted": deleted,
		"cutoff":  cutoff.Format(time.RFC3339),
	}).Info("Audit log retention pass completed")

	return deleted, nil
}
