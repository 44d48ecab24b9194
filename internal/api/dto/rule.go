package dto

// CreateAlertRuleRequest represents an alert rule creation request
type CreateAlertRuleRequest struct {
	Name          string   `json:"name" validate:"required,max=120"`
	MetricName    string   `json:"metric_name" validate:"required"`
	Operator      string   `json:"operator" validate:"required,oneof=gt ge lt le eq ne"`
	Threshold     float64  `json:"threshold"`
	WindowMinutes int      `json:"window_minutes,omitempty" validate:"omitempty,gt=0"`
	Severity      string   `json:"severity,omitempty" validate:"omitempty,oneof=info warning critical"`
	Active        *bool    `json:"active,omitempty"`
	Recipients    []string `json:"recipients,omitempty" validate:"omitempty,dive,email"`
}

// UpdateAlertRuleRequest represents an alert rule update request
type UpdateAlertRuleRequest struct {
	Name          *string  `json:"name,omitempty" validate:"omitempty,max=120"`
	MetricName    *string  `json:"metric_name,omitempty"`
	Operator      *string  `json:"operator,omitempty" validate:"omitempty,oneof=gt ge lt le eq ne"`
	Threshold     *float64 `json:"threshold,omitempty"`
	WindowMinutes *int     `json:"window_minutes,omitempty" validate:"omitempty,gt=0"`
	Severity      *string  `json:"severity,omitempty" validate:"omitempty,oneof=info warning critical"`
	Active        *bool    `json:"active,omitempty"`
	Recipients    []string `json:"recipients,omitempty" validate:"omitempty,dive,email"`
}
