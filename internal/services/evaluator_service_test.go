package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dishom/opsboard/internal/domain/incident"
	"github.com/dishom/opsboard/internal/domain/metric"
	"github.com/dishom/opsboard/internal/domain/rule"
	"github.com/dishom/opsboard/internal/livefeed"
	"github.com/dishom/opsboard/internal/testutil"
)

func newEvaluatorFixture(t *testing.T) (*EvaluatorService, *testutil.MockRuleRepository, *testutil.MockIncidentRepository, *metric.Registry, *livefeed.Hub) {
	t.Helper()
	rules := testutil.NewMockRuleRepository()
	incidents := testutil.NewMockIncidentRepository()
	registry := metric.NewRegistry()
	hub := livefeed.NewHub(16, testutil.NewTestLogger())
	t.Cleanup(hub.Close)

	svc := NewEvaluatorService(rules, incidents, registry, hub, testutil.NewTestLogger(), time.Second)
	return svc, rules, incidents, registry, hub
}

func addRule(t *testing.T, rules *testutil.MockRuleRepository, r *rule.AlertRule) *rule.AlertRule {
	t.Helper()
	if r.Severity == "" {
		r.Severity = rule.SeverityWarning
	}
	if r.WindowMinutes == 0 {
		r.WindowMinutes = 5
	}
	if _, err := rules.Create(context.Background(), r); err != nil {
		t.Fatalf("Failed to seed rule: %v", err)
	}
	return r
}

func TestEvaluateAllOpensIncidentOnce(t *testing.T) {
	svc, rules, incidents, registry, _ := newEvaluatorFixture(t)

	registry.Register(&testutil.FakeSource{MetricName: "failed_payments", Value: 12})
	r := addRule(t, rules, &rule.AlertRule{
		Name:       "Payment failures",
		MetricName: "failed_payments",
		Operator:   rule.OpGreaterThan,
		Threshold:  10,
		Severity:   rule.SeverityCritical,
		Active:     true,
	})

	// The condition stays tripped across several ticks; only the first
	// tick may open an incident.
	for i := 0; i < 3; i++ {
		if err := svc.EvaluateAll(context.Background()); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}

	if len(incidents.Incidents) != 1 {
		t.Fatalf("incidents = %d, want 1", len(incidents.Incidents))
	}
	inc := incidents.Incidents[1]
	if inc.Status != incident.StatusOpen {
		t.Errorf("status = %q, want open", inc.Status)
	}
	if inc.Severity != rule.SeverityCritical {
		t.Errorf("severity = %q, want critical", inc.Severity)
	}
	if inc.RuleID == nil || *inc.RuleID != r.ID {
		t.Errorf("rule id = %v, want %d", inc.RuleID, r.ID)
	}

	var meta map[string]interface{}
	if err := json.Unmarshal(inc.Metadata, &meta); err != nil {
		t.Fatalf("metadata not valid JSON: %v", err)
	}
	if meta["metric"] != "failed_payments" {
		t.Errorf("metadata metric = %v, want failed_payments", meta["metric"])
	}
	if meta["value"].(float64) != 12 {
		t.Errorf("metadata value = %v, want 12", meta["value"])
	}
}

func TestEvaluateAllReopensAfterResolve(t *testing.T) {
	svc, rules, incidents, registry, _ := newEvaluatorFixture(t)

	registry.Register(&testutil.FakeSource{MetricName: "failed_payments", Value: 12})
	addRule(t, rules, &rule.AlertRule{
		Name:       "Payment failures",
		MetricName: "failed_payments",
		Operator:   rule.OpGreaterThan,
		Threshold:  10,
		Active:     true,
	})

	if err := svc.EvaluateAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Acknowledged still counts as active: no second incident.
	incidents.Incidents[1].Status = incident.StatusAcknowledged
	if err := svc.EvaluateAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(incidents.Incidents) != 1 {
		t.Fatalf("incidents after acknowledge = %d, want 1", len(incidents.Incidents))
	}

	// Resolving frees the rule to alarm again.
	incidents.Incidents[1].Status = incident.StatusResolved
	if err := svc.EvaluateAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(incidents.Incidents) != 2 {
		t.Fatalf("incidents after resolve = %d, want 2", len(incidents.Incidents))
	}
}

func TestEvaluateAllSkipsInactiveRules(t *testing.T) {
	svc, rules, incidents, registry, _ := newEvaluatorFixture(t)

	src := &testutil.FakeSource{MetricName: "failed_payments", Value: 99}
	registry.Register(src)
	addRule(t, rules, &rule.AlertRule{
		Name:       "Disabled",
		MetricName: "failed_payments",
		Operator:   rule.OpGreaterThan,
		Threshold:  1,
		Active:     false,
	})

	if err := svc.EvaluateAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if src.Calls != 0 {
		t.Errorf("source queried %d times for an inactive rule, want 0", src.Calls)
	}
	if len(incidents.Incidents) != 0 {
		t.Errorf("incidents = %d, want 0", len(incidents.Incidents))
	}
}

func TestEvaluateAllSkipsUnregisteredMetric(t *testing.T) {
	svc, rules, incidents, _, _ := newEvaluatorFixture(t)

	addRule(t, rules, &rule.AlertRule{
		Name:       "No source here",
		MetricName: "live_viewers",
		Operator:   rule.OpGreaterThan,
		Threshold:  1,
		Active:     true,
	})

	if err := svc.EvaluateAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(incidents.Incidents) != 0 {
		t.Errorf("incidents = %d, want 0", len(incidents.Incidents))
	}
}

func TestEvaluateAllSkipsFailingSource(t *testing.T) {
	svc, rules, incidents, registry, _ := newEvaluatorFixture(t)

	registry.Register(&testutil.FakeSource{
		MetricName: "failed_payments",
		Err:        errors.New("connection refused"),
	})
	addRule(t, rules, &rule.AlertRule{
		Name:       "Payment failures",
		MetricName: "failed_payments",
		Operator:   rule.OpGreaterThan,
		Threshold:  1,
		Active:     true,
	})

	if err := svc.EvaluateAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(incidents.Incidents) != 0 {
		t.Errorf("incidents = %d, want 0", len(incidents.Incidents))
	}
}

func TestEvaluateAllTimesOutSlowSource(t *testing.T) {
	rules := testutil.NewMockRuleRepository()
	incidents := testutil.NewMockIncidentRepository()
	registry := metric.NewRegistry()
	hub := livefeed.NewHub(16, testutil.NewTestLogger())
	defer hub.Close()

	svc := NewEvaluatorService(rules, incidents, registry, hub, testutil.NewTestLogger(), 20*time.Millisecond)

	registry.Register(&testutil.FakeSource{
		MetricName: "failed_payments",
		Value:      99,
		Delay:      500 * time.Millisecond,
	})
	addRule(t, rules, &rule.AlertRule{
		Name:       "Payment failures",
		MetricName: "failed_payments",
		Operator:   rule.OpGreaterThan,
		Threshold:  1,
		Active:     true,
	})

	start := time.Now()
	if err := svc.EvaluateAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 300*time.Millisecond {
		t.Errorf("tick took %v, want the per-source timeout to cut it short", elapsed)
	}
	if len(incidents.Incidents) != 0 {
		t.Errorf("incidents = %d, want 0", len(incidents.Incidents))
	}
}

func TestEvaluateAllIsolatesRuleFailures(t *testing.T) {
	svc, rules, incidents, registry, _ := newEvaluatorFixture(t)

	registry.Register(&testutil.FakeSource{MetricName: "broken", Err: errors.New("boom")})
	registry.Register(&testutil.FakeSource{MetricName: "failed_payments", Value: 50})

	addRule(t, rules, &rule.AlertRule{
		Name: "Broken first", MetricName: "broken",
		Operator: rule.OpGreaterThan, Threshold: 1, Active: true,
	})
	addRule(t, rules, &rule.AlertRule{
		Name: "Healthy second", MetricName: "failed_payments",
		Operator: rule.OpGreaterThan, Threshold: 10, Active: true,
	})

	if err := svc.EvaluateAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(incidents.Incidents) != 1 {
		t.Fatalf("incidents = %d, want 1 from the healthy rule", len(incidents.Incidents))
	}
}

func TestEvaluateRuleOperators(t *testing.T) {
	tests := []struct {
		name      string
		operator  rule.Operator
		threshold float64
		value     float64
		trips     bool
	}{
		{"gt above", rule.OpGreaterThan, 10, 11, true},
		{"gt equal", rule.OpGreaterThan, 10, 10, false},
		{"ge equal", rule.OpGreaterOrEqual, 10, 10, true},
		{"ge below", rule.OpGreaterOrEqual, 10, 9.99, false},
		{"lt below", rule.OpLessThan, 10, 9, true},
		{"lt equal", rule.OpLessThan, 10, 10, false},
		{"le equal", rule.OpLessOrEqual, 10, 10, true},
		{"le above", rule.OpLessOrEqual, 10, 10.01, false},
		{"eq match", rule.OpEqual, 0, 0, true},
		{"eq miss", rule.OpEqual, 0, 0.0001, false},
		{"ne differ", rule.OpNotEqual, 5, 6, true},
		{"ne same", rule.OpNotEqual, 5, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, rules, incidents, registry, _ := newEvaluatorFixture(t)

			registry.Register(&testutil.FakeSource{MetricName: "m", Value: tt.value})
			addRule(t, rules, &rule.AlertRule{
				Name:       "op case",
				MetricName: "m",
				Operator:   tt.operator,
				Threshold:  tt.threshold,
				Active:     true,
			})

			if err := svc.EvaluateAll(context.Background()); err != nil {
				t.Fatal(err)
			}
			got := len(incidents.Incidents) == 1
			if got != tt.trips {
				t.Errorf("tripped = %v, want %v", got, tt.trips)
			}
		})
	}
}

func TestOpenIncidentPublishesToFeed(t *testing.T) {
	svc, rules, _, registry, hub := newEvaluatorFixture(t)

	sub := hub.Subscribe(livefeed.TopicIncidents)

	registry.Register(&testutil.FakeSource{MetricName: "failed_payments", Value: 20})
	addRule(t, rules, &rule.AlertRule{
		Name:       "Payment failures",
		MetricName: "failed_payments",
		Operator:   rule.OpGreaterThan,
		Threshold:  10,
		Active:     true,
	})

	if err := svc.EvaluateAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	select {
	case payload := <-sub.C:
		var msg livefeed.Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("bad feed payload: %v", err)
		}
		if msg.Type != livefeed.TypeIncidentOpen {
			t.Errorf("type = %q, want incident_open", msg.Type)
		}
		if msg.Topic != livefeed.TopicIncidents {
			t.Errorf("topic = %q, want incidents", msg.Topic)
		}
	case <-time.After(time.Second):
		t.Fatal("no message on incidents topic")
	}
}
