package dto

// CreateIncidentRequest represents a manually reported incident
type CreateIncidentRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Severity string `json:"severity,omitempty" validate:"omitempty,oneof=info warning critical"`
	Notes    string `json:"notes,omitempty"`
}

// UpdateIncidentStatusRequest represents a lifecycle transition request
type UpdateIncidentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open acknowledged resolved"`
}

// AssignIncidentRequest represents an assignment request
type AssignIncidentRequest struct {
	AssignedTo *int64 `json:"assigned_to"`
	Notes      string `json:"notes,omitempty"`
}

// BulkResolveRequest represents a bulk resolution request
type BulkResolveRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1"`
}

// BulkResolveResponse reports how many incidents were transitioned
type BulkResolveResponse struct {
	Updated int64 `json:"updated"`
}
