package rule

import "context"

// Service defines the interface for alert rule business logic
type Service interface {
	// Create validates and creates a new alert rule
	Create(ctx context.Context, r *AlertRule) (int64, error)

	// GetByID retrieves an alert rule by ID
	GetByID(ctx context.Context, id int64) (*AlertRule, error)

	// Update validates and updates an existing alert rule
	Update(ctx context.Context, r *AlertRule) error

	// Delete deletes an alert rule
	Delete(ctx context.Context, id int64) error

	// List retrieves alert rules with pagination
	List(ctx context.Context, limit, offset int) ([]*AlertRule, int64, error)
}
