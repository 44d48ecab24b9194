package client

import (
	"encoding/json"
	"time"
)

// ListOptions contains common pagination options
type ListOptions struct {
	Page     int
	PageSize int
}

// Paginated wraps a page of results with its pagination metadata.
type Paginated[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// Incident mirrors the server's incident resource
type Incident struct {
	ID         int64           `json:"id"`
	Title      string          `json:"title"`
	Status     string          `json:"status"`
	Severity   string          `json:"severity"`
	RuleID     *int64          `json:"rule"`
	CreatedBy  *int64          `json:"created_by"`
	AssignedTo *int64          `json:"assigned_to"`
	Notes      string          `json:"notes"`
	Metadata   json.RawMessage `json:"metadata"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// AlertRule mirrors the server's alert rule resource
type AlertRule struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	MetricName    string          `json:"metric_name"`
	Operator      string          `json:"operator"`
	Threshold     float64         `json:"threshold"`
	WindowMinutes int             `json:"window_minutes"`
	Severity      string          `json:"severity"`
	Recipients    json.RawMessage `json:"recipients"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AuditEvent mirrors the server's projected audit log entry
type AuditEvent struct {
	ID          int64           `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	ActorID     *int64          `json:"user"`
	Action      string          `json:"action_type"`
	Subsystem   string          `json:"app_label"`
	EntityKind  string          `json:"model_name"`
	EntityID    *string         `json:"object_id"`
	ClientIP    *string         `json:"ip_address"`
	ClientAgent *string         `json:"user_agent"`
	Before      json.RawMessage `json:"data_before"`
	After       json.RawMessage `json:"data_after"`
	Metadata    json.RawMessage `json:"metadata"`
}

// Trend mirrors one metric's current-vs-previous comparison
type Trend struct {
	Current   float64 `json:"current"`
	Previous  float64 `json:"prev"`
	PctChange float64 `json:"pct"`
}

// FeedMessage is one live feed event as received over the WebSocket.
type FeedMessage struct {
	Type      string          `json:"type"`
	Topic     string          `json:"app"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}
