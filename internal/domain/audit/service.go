package audit

import (
	"context"
	"database/sql"

	"github.com/dishom/opsboard/internal/auth"
)

// Service defines the interface for the audit trail: recording, reading
// and projecting entries
type Service interface {
	// Record persists the entry and, once durable, hands it to the live
	// feed. The hand-off cannot fail the call.
	Record(ctx context.Context, e *Entry) error

	// RecordTx persists the entry inside the caller's transaction and
	// returns an announce function the caller must invoke after a
	// successful commit. On rollback the entry rolls back with the
	// caller's work and announce must not be called.
	RecordTx(ctx context.Context, tx *sql.Tx, e *Entry) (announce func(), err error)

	// List retrieves projected entries matching the filter
	List(ctx context.Context, caps auth.Capabilities, filter Filter, limit, offset int) ([]View, int64, error)

	// Timeline retrieves a single entity's projected trail
	Timeline(ctx context.Context, caps auth.Capabilities, subsystem, entityKind, entityID string) ([]View, error)

	// Recent retrieves the newest projected mutation events
	Recent(ctx context.Context, caps auth.Capabilities, subsystem string, limit int) ([]View, error)

	// Purge removes entries older than the retention horizon
	Purge(ctx context.Context) (int64, error)
}
