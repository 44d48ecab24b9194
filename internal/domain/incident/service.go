package incident

import "context"

// Service defines the interface for incident business logic
type Service interface {
	// Create creates a manually reported incident
	Create(ctx context.Context, inc *Incident) (int64, error)

	// GetByID retrieves an incident by ID
	GetByID(ctx context.Context, id int64) (*Incident, error)

	// List retrieves incidents with pagination
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Incident, int64, error)

	// UpdateStatus applies a lifecycle transition
	UpdateStatus(ctx context.Context, id int64, status string) error

	// Assign sets the assignee and optional notes
	Assign(ctx context.Context, id int64, assignedTo *int64, notes string) error

	// BulkResolve resolves the listed incidents and returns the count
	BulkResolve(ctx context.Context, ids []int64) (int64, error)
}
