package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/dishom/opsboard/internal/domain/audit"
	"github.com/dishom/opsboard/internal/domain/incident"
	"github.com/dishom/opsboard/internal/domain/rule"
)

// MockAuditRepository is a mock implementation of audit.Repository
type MockAuditRepository struct {
	Entries     map[int64]*audit.Entry
	NextID      int64
	CreateError error
	ListError   error
	DeleteError error
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{
		Entries: make(map[int64]*audit.Entry),
		NextID:  1,
	}
}

func (m *MockAuditRepository) Create(ctx context.Context, e *audit.Entry) (int64, error) {
	if m.CreateError != nil {
		return 0, m.CreateError
	}
	e.ID = m.NextID
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	m.NextID++
	m.Entries[e.ID] = e
	return e.ID, nil
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx *sql.Tx, e *audit.Entry) (int64, error) {
	return m.Create(ctx, e)
}

func (m *MockAuditRepository) List(ctx context.Context, filter audit.Filter, limit, offset int) ([]*audit.Entry, int64, error) {
	if m.ListError != nil {
		return nil, 0, m.ListError
	}
	matched := m.match(filter)
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *MockAuditRepository) Timeline(ctx context.Context, subsystem, entityKind, entityID string) ([]*audit.Entry, error) {
	var out []*audit.Entry
	for _, e := range m.Entries {
		if e.Subsystem == subsystem && e.EntityKind == entityKind &&
			e.EntityID != nil && *e.EntityID == entityID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (m *MockAuditRepository) Recent(ctx context.Context, actions []string, subsystem string, limit int) ([]*audit.Entry, error) {
	allowed := make(map[string]bool, len(actions))
	for _, a := range actions {
		allowed[a] = true
	}

	var out []*audit.Entry
	for _, e := range m.Entries {
		if !allowed[e.Action] {
			continue
		}
		if subsystem != "" && e.Subsystem != subsystem {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockAuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.DeleteError != nil {
		return 0, m.DeleteError
	}
	var deleted int64
	for id, e := range m.Entries {
		if e.Timestamp.Before(cutoff) {
			delete(m.Entries, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MockAuditRepository) match(filter audit.Filter) []*audit.Entry {
	var out []*audit.Entry
	for _, e := range m.Entries {
		if filter.Start != nil && e.Timestamp.Before(*filter.Start) {
			continue
		}
		if filter.End != nil && !e.Timestamp.Before(*filter.End) {
			continue
		}
		if filter.ActorID != nil && (e.ActorID == nil || *e.ActorID != *filter.ActorID) {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.Subsystem != "" && e.Subsystem != filter.Subsystem {
			continue
		}
		if filter.EntityKind != "" && e.EntityKind != filter.EntityKind {
			continue
		}
		out = append(out, e)
	}
	return out
}

// MockRuleRepository is a mock implementation of rule.Repository
type MockRuleRepository struct {
	Rules     map[int64]*rule.AlertRule
	NextID    int64
	ListError error
}

func NewMockRuleRepository() *MockRuleRepository {
	return &MockRuleRepository{
		Rules:  make(map[int64]*rule.AlertRule),
		NextID: 1,
	}
}

func (m *MockRuleRepository) Create(ctx context.Context, r *rule.AlertRule) (int64, error) {
	r.ID = m.NextID
	m.NextID++
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	m.Rules[r.ID] = r
	return r.ID, nil
}

func (m *MockRuleRepository) GetByID(ctx context.Context, id int64) (*rule.AlertRule, error) {
	r, ok := m.Rules[id]
	if !ok {
		return nil, fmt.Errorf("alert rule not found")
	}
	return r, nil
}

func (m *MockRuleRepository) Update(ctx context.Context, r *rule.AlertRule) error {
	if _, ok := m.Rules[r.ID]; !ok {
		return fmt.Errorf("alert rule not found")
	}
	r.UpdatedAt = time.Now().UTC()
	m.Rules[r.ID] = r
	return nil
}

func (m *MockRuleRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.Rules[id]; !ok {
		return fmt.Errorf("alert rule not found")
	}
	delete(m.Rules, id)
	return nil
}

func (m *MockRuleRepository) List(ctx context.Context, limit, offset int) ([]*rule.AlertRule, int64, error) {
	out := m.sorted()
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (m *MockRuleRepository) ListActive(ctx context.Context) ([]*rule.AlertRule, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	var out []*rule.AlertRule
	for _, r := range m.sorted() {
		if r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockRuleRepository) sorted() []*rule.AlertRule {
	out := make([]*rule.AlertRule, 0, len(m.Rules))
	for _, r := range m.Rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MockIncidentRepository is a mock implementation of incident.Repository
type MockIncidentRepository struct {
	Incidents   map[int64]*incident.Incident
	NextID      int64
	CreateError error
	ExistsError error
}

func NewMockIncidentRepository() *MockIncidentRepository {
	return &MockIncidentRepository{
		Incidents: make(map[int64]*incident.Incident),
		NextID:    1,
	}
}

func (m *MockIncidentRepository) Create(ctx context.Context, inc *incident.Incident) (int64, error) {
	if m.CreateError != nil {
		return 0, m.CreateError
	}
	inc.ID = m.NextID
	m.NextID++
	now := time.Now().UTC()
	inc.CreatedAt = now
	inc.UpdatedAt = now
	m.Incidents[inc.ID] = inc
	return inc.ID, nil
}

func (m *MockIncidentRepository) GetByID(ctx context.Context, id int64) (*incident.Incident, error) {
	inc, ok := m.Incidents[id]
	if !ok {
		return nil, fmt.Errorf("incident not found")
	}
	return inc, nil
}

func (m *MockIncidentRepository) Update(ctx context.Context, inc *incident.Incident) error {
	if _, ok := m.Incidents[inc.ID]; !ok {
		return fmt.Errorf("incident not found")
	}
	inc.UpdatedAt = time.Now().UTC()
	m.Incidents[inc.ID] = inc
	return nil
}

func (m *MockIncidentRepository) List(ctx context.Context, filter incident.Filter, limit, offset int) ([]*incident.Incident, int64, error) {
	var matched []*incident.Incident
	for _, inc := range m.Incidents {
		if filter.Status != "" && inc.Status != filter.Status {
			continue
		}
		if filter.Severity != "" && inc.Severity != filter.Severity {
			continue
		}
		matched = append(matched, inc)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *MockIncidentRepository) BulkResolve(ctx context.Context, ids []int64) (int64, error) {
	var updated int64
	for _, id := range ids {
		inc, ok := m.Incidents[id]
		if !ok || inc.Status == incident.StatusResolved {
			continue
		}
		inc.Status = incident.StatusResolved
		inc.UpdatedAt = time.Now().UTC()
		updated++
	}
	return updated, nil
}

func (m *MockIncidentRepository) ExistsActiveForRule(ctx context.Context, ruleID int64) (bool, error) {
	if m.ExistsError != nil {
		return false, m.ExistsError
	}
	for _, inc := range m.Incidents {
		if inc.RuleID != nil && *inc.RuleID == ruleID &&
			(inc.Status == incident.StatusOpen || inc.Status == incident.StatusAcknowledged) {
			return true, nil
		}
	}
	return false, nil
}
