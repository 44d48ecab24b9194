package dto

// ExecuteActionRequest represents an admin action invocation
type ExecuteActionRequest struct {
	Action   string `json:"action" validate:"required"`
	TargetID int64  `json:"target_id" validate:"required,gt=0"`
}
