package audit

import (
	"encoding/json"
	"time"
)

// Entry is one immutable audit trail fact. There is no update path:
// entries are created once and only ever read or purged by retention.
type Entry struct {
	ID          int64           `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	ActorID     *int64          `json:"actor_id"` // nil means system-initiated
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

// Action kinds
const (
	ActionCreate  = "CREATE"
	ActionUpdate  = "UPDATE"
	ActionDelete  = "DELETE"
	ActionLogin   = "LOGIN"
	ActionLogout  = "LOGOUT"
	ActionPayment = "PAYMENT"
)

// MutationActions are the action kinds surfaced on the live-events feed.
var MutationActions = []string{ActionCreate, ActionUpdate, ActionDelete}

// ValidAction reports whether s is a known action kind.
func ValidAction(s string) bool {
	switch s {
	case ActionCreate, ActionUpdate, ActionDelete, ActionLogin, ActionLogout, ActionPayment:
		return true
	}
	return false
}

// MaxClientAgentLen bounds the stored user agent string.
const MaxClientAgentLen = 512

// Filter contains audit trail filtering options
type Filter struct {
	Start      *time.Time
	End        *time.Time
	ActorID    *int64
	Action     string
	Subsystem  string
	EntityKind string
	Search     string // matched against user agent and metadata
}

// View is the caller-visible projection of an Entry. Before/After are
// populated only for callers holding the full-audit capability.
type View struct {
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
