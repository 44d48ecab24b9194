package rule

import (
	"encoding/json"
	"time"
)

// Operator is the comparison applied between a metric value and a
// rule's threshold. Wire codes follow the stored representation.
type Operator string

const (
	OpGreaterThan    Operator = "gt"
	OpGreaterOrEqual Operator = "ge"
	OpLessThan       Operator = "lt"
	OpLessOrEqual    Operator = "le"
	OpEqual          Operator = "eq"
	OpNotEqual       Operator = "ne"
)

// Valid reports whether the operator is a known comparison.
func (o Operator) Valid() bool {
	switch o {
	case OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual, OpEqual, OpNotEqual:
		return true
	}
	return false
}

// Compare applies the operator to value and threshold. Equality is exact:
// eq/ne on floating metrics is a documented sharp edge, not smoothed with
// an epsilon.
func (o Operator) Compare(value, threshold float64) bool {
	switch o {
	case OpGreaterThan:
		return value > threshold
	case OpGreaterOrEqual:
		return value >= threshold
	case OpLessThan:
		return value < threshold
	case OpLessOrEqual:
		return value <= threshold
	case OpEqual:
		return value == threshold
	case OpNotEqual:
		return value != threshold
	}
	return false
}

// Symbol returns the display form of the operator.
func (o Operator) Symbol() string {
	switch o {
	case OpGreaterThan:
		return ">"
	case OpGreaterOrEqual:
		return ">="
	case OpLessThan:
		return "<"
	case OpLessOrEqual:
		return "<="
	case OpEqual:
		return "=="
	case OpNotEqual:
		return "!="
	}
	return string(o)
}

// Severity levels
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// ValidSeverity reports whether s is a known severity.
func ValidSeverity(s string) bool {
	return s == SeverityInfo || s == SeverityWarning || s == SeverityCritical
}

// AlertRule is operator-defined threshold configuration evaluated on a
// schedule against a registered metric source.
type AlertRule struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	MetricName    string          `json:"metric_name"`
	Operator      Operator        `json:"operator"`
	Threshold     float64         `json:"threshold"`
	WindowMinutes int             `json:"window_minutes"`
	Severity      string          `json:"severity"`
	Recipients    json.RawMessage `json:"recipients"`
	Active        bool            `json:"active"`
	CreatedBy     *int64          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Window returns the rule's lookback duration.
func (r *AlertRule) Window() time.Duration {
	return time.Duration(r.WindowMinutes) * time.Minute
}
