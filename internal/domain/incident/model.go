package incident

import (
	"encoding/json"
	"time"
)

// Incident status lifecycle: open -> acknowledged -> resolved, or
// open -> resolved directly. Resolved is terminal.
const (
	StatusOpen         = "open"
	StatusAcknowledged = "acknowledged"
	StatusResolved     = "resolved"
)

// ValidStatus reports whether s is a known status.
func ValidStatus(s string) bool {
	return s == StatusOpen || s == StatusAcknowledged || s == StatusResolved
}

// CanTransition reports whether moving from one status to another is a
// legal lifecycle step.
func CanTransition(from, to string) bool {
	switch from {
	case StatusOpen:
		return to == StatusAcknowledged || to == StatusResolved
	case StatusAcknowledged:
		return to == StatusResolved
	}
	return false
}

// Incident is one triggered-and-unresolved (or resolved) alert
// occurrence. Severity is copied from the triggering rule at creation
// time and never re-derived.
type Incident struct {
	ID         int64           `json:"id"`
	Title      string          `json:"title"`
	Status     string          `json:"status"`
	Severity   string          `json:"severity"`
	RuleID     *int64          `json:"rule"` // nil for manually created incidents
	CreatedBy  *int64          `json:"created_by"`
	AssignedTo *int64          `json:"assigned_to"`
	Notes      string          `json:"notes"`
	Metadata   json.RawMessage `json:"metadata"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Filter contains incident filtering options
type Filter struct {
	Status   string
	Severity string
}
