package services

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/dishom/opsboard/internal/auth"
	"github.com/dishom/opsboard/internal/domain/audit"
	"github.com/dishom/opsboard/internal/livefeed"
	"github.com/dishom/opsboard/internal/pkg/logger"
	"github.com/dishom/opsboard/internal/pkg/metrics"
)

// AuditService implements audit.Service
type AuditService struct {
	repo          audit.Repository
	hub           *livefeed.Hub
	logger        *logger.Logger
	snapshotBytes int
	retentionDays int
}

// NewAuditService creates a new audit service
func NewAuditService(repo audit.Repository, hub *livefeed.Hub, log *logger.Logger, snapshotBytes, retentionDays int) audit.Service {
	return &AuditService{
		repo:          repo,
		hub:           hub,
		logger:        log,
		snapshotBytes: snapshotBytes,
		retentionDays: retentionDays,
	}
}

// Record persists the entry and hands it to the live feed
func (s *AuditService) Record(ctx context.Context, e *audit.Entry) error {
	s.prepare(e)

	if _, err := s.repo.Create(ctx, e); err != nil {
		s.logger.ErrorWithErr(err, "Failed to record audit log entry")
		return err
	}

	s.announce(e)
	return nil
}

// RecordTx persists the entry inside the caller's transaction. The
// returned announce func must run after the caller commits; on rollback
// the entry disappears with the caller's work and announce is skipped.
func (s *AuditService) RecordTx(ctx context.Context, tx *sql.Tx, e *audit.Entry) (func(), error) {
	s.prepare(e)

	if _, err := s.repo.CreateTx(ctx, tx, e); err != nil {
		s.logger.ErrorWithErr(err, "Failed to record audit log entry")
		return nil, err
	}

	return func() { s.announce(e) }, nil
}

// List retrieves projected entries matching the filter
func (s *AuditService) List(ctx context.Context, caps auth.Capabilities, filter audit.Filter, limit, offset int) ([]audit.View, int64, error) {
	entries, total, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return projectAll(entries, caps), total, nil
}

// Timeline retrieves a single entity's projected trail
func (s *AuditService) Timeline(ctx context.Context, caps auth.Capabilities, subsystem, entityKind, entityID string) ([]audit.View, error) {
	entries, err := s.repo.Timeline(ctx, subsystem, entityKind, entityID)
	if err != nil {
		return nil, err
	}
	return projectAll(entries, caps), nil
}

// Recent retrieves the newest projected mutation events
func (s *AuditService) Recent(ctx context.Context, caps auth.Capabilities, subsystem string, limit int) ([]audit.View, error) {
	entries, err := s.repo.Recent(ctx, audit.MutationActions, subsystem, limit)
	if err != nil {
		return nil, err
	}
	return projectAll(entries, caps), nil
}

// Purge removes entries past the retention horizon
func (s *AuditService) Purge(ctx context.Context) (int64, error) {
	return purgeAuditLogs(ctx, s.repo, s.retentionDays, s.logger)
}

// prepare applies the storage bounds: user agent length and the
// per-snapshot byte budget. Oversized snapshots are truncated rather
// than rejected so the audit write never blocks the primary operation.
func (s *AuditService) prepare(e *audit.Entry) {
	if e.ClientAgent != nil && len(*e.ClientAgent) > audit.MaxClientAgentLen {
		trimmed := (*e.ClientAgent)[:audit.MaxClientAgentLen]
		e.ClientAgent = &trimmed
	}
	e.Before = truncateSnapshot(e.Before, s.snapshotBytes)
	e.After = truncateSnapshot(e.After, s.snapshotBytes)
}

// announce hands the committed entry to the live feed. It never returns
// an error: broadcast failure must not fail the recording call.
func (s *AuditService) announce(e *audit.Entry) {
	metrics.RecordAuditEntry(e.Action, e.Subsystem)
	// The feed carries the redacted projection: subscribers share one
	// stream regardless of their capability tier.
	s.hub.Publish(e.Subsystem, livefeed.Message{
		Type: livefeed.TypeAuditEvent,
		Data: Project(e, auth.Capabilities{}),
	})
}

// Project produces the caller-visible view of an entry. Scalar fields
// pass through; before/after snapshots require the full-audit
// capability. Pure function of (entry, capabilities).
func Project(e *audit.Entry, caps auth.Capabilities) audit.View {
	v := audit.View{
		ID:          e.ID,
		Timestamp:   e.Timestamp,
		ActorID:     e.ActorID,
		Action:      e.Action,
		Subsystem:   e.Subsystem,
		EntityKind:  e.EntityKind,
		EntityID:    e.EntityID,
		ClientIP:    e.ClientIP,
		ClientAgent: e.ClientAgent,
		Metadata:    e.Metadata,
	}
	if caps.FullAudit {
		v.Before = e.Before
		v.After = e.After
	}
	return v
}

func projectAll(entries []*audit.Entry, caps auth.Capabilities) []audit.View {
	views := make([]audit.View, len(entries))
	for i, e := range entries {
		views[i] = Project(e, caps)
	}
	return views
}

// truncateSnapshot enforces the snapshot byte budget. A snapshot that no
// longer parses after cutting is replaced with a marker object so the
// stored column stays valid JSON.
func truncateSnapshot(raw json.RawMessage, budget int) json.RawMessage {
	if len(raw) <= budget {
		return raw
	}
	cut := raw[:budget]
	if json.Valid(cut) {
		return cut
	}
	marker, _ := json.Marshal(map[string]interface{}{
		"_truncated":     true,
		"original_bytes": len(raw),
	})
	return marker
}
