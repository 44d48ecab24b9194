package audit

import (
	"context"
	"database/sql"
	"time"
)

// Repository defines the interface for audit trail data access
type Repository interface {
	// Create persists a new entry in its own short transaction
	Create(ctx context.Context, e *Entry) (int64, error)

	// CreateTx persists a new entry inside the caller's transaction so it
	// commits or rolls back with the enclosing unit of work
	CreateTx(ctx context.Context, tx *sql.Tx, e *Entry) (int64, error)

	// List retrieves entries matching the filter, newest first, paginated
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Entry, int64, error)

	// Timeline retrieves the chronological trail of a single entity
	Timeline(ctx context.Context, subsystem, entityKind, entityID string) ([]*Entry, error)

	// Recent retrieves the newest entries for the given action kinds,
	// optionally restricted to one subsystem
	Recent(ctx context.Context, actions []string, subsystem string, limit int) ([]*Entry, error)

	// DeleteOlderThan hard-deletes entries with timestamp before cutoff
	// and returns the number of rows removed
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
