package incident

import "context"

// Repository defines the interface for incident data access
type Repository interface {
	// Create creates a new incident
	Create(ctx context.Context, inc *Incident) (int64, error)

	// GetByID retrieves an incident by ID
	GetByID(ctx context.Context, id int64) (*Incident, error)

	// Update updates an incident
	Update(ctx context.Context, inc *Incident) error

	// List retrieves incidents, most recently updated first, paginated
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Incident, int64, error)

	// BulkResolve transitions every listed incident that is not already
	// resolved to resolved and returns the number updated
	BulkResolve(ctx context.Context, ids []int64) (int64, error)

	// ExistsActiveForRule reports whether an open or acknowledged
	// incident exists for the rule
	ExistsActiveForRule(ctx context.Context, ruleID int64) (bool, error)
}
