package rule

import "context"

// Repository defines the interface for alert rule data access
type Repository interface {
	// Create creates a new alert rule
	Create(ctx context.Context, r *AlertRule) (int64, error)

	// GetByID retrieves an alert rule by ID
	GetByID(ctx context.Context, id int64) (*AlertRule, error)

	// Update updates an alert rule
	Update(ctx context.Context, r *AlertRule) error

	// Delete deletes an alert rule
	Delete(ctx context.Context, id int64) error

	// List retrieves alert rules, most recently updated first, paginated
	List(ctx context.Context, limit, offset int) ([]*AlertRule, int64, error)

	// ListActive retrieves every rule with the active gate set
	ListActive(ctx context.Context) ([]*AlertRule, error)
}
