package metric

import "math"

// Trend is one metric's current-period value, previous-period value and
// percentage change between them.
type Trend struct {
	Current   float64 `json:"current"`
	Previous  float64 `json:"prev"`
	PctChange float64 `json:"pct"`
}

// NewTrend computes a trend from current and previous values. With a
// zero previous period the change is 100 when something appeared, else 0.
// Values are rounded to two decimals for presentation stability.
func NewTrend(current, previous float64) Trend {
	var pct float64
	switch {
	case previous != 0:
		pct = (current - previous) / previous * 100
	case current != 0:
		pct = 100
	}
	return Trend{
		Current:   round2(current),
		Previous:  round2(previous),
		PctChange: round2(pct),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
