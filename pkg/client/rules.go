package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// RuleService handles alert rule API calls
type RuleService struct {
	client *Client
}

// RuleSpec defines an alert rule for create and update calls. It is
// also the YAML shape consumed by declarative rule files.
type RuleSpec struct {
	Name          string   `json:"name" yaml:"name"`
	MetricName    string   `json:"metric_name" yaml:"metric_name"`
	Operator      string   `json:"operator" yaml:"operator"`
	Threshold     float64  `json:"threshold" yaml:"threshold"`
	WindowMinutes int      `json:"window_minutes,omitempty" yaml:"window_minutes,omitempty"`
	Severity      string   `json:"severity,omitempty" yaml:"severity,omitempty"`
	Active        *bool    `json:"active,omitempty" yaml:"active,omitempty"`
	Recipients    []string `json:"recipients,omitempty" yaml:"recipients,omitempty"`
}

// List retrieves a page of alert rules
func (s *RuleService) List(ctx context.Context, opts *ListOptions) (*Paginated[AlertRule], error) {
	query := url.Values{}
	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
	}

	path := "/api/v1/alerts"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page Paginated[AlertRule]
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get retrieves one alert rule
func (s *RuleService) Get(ctx context.Context, id int64) (*AlertRule, error) {
	var out AlertRule
	path := fmt.Sprintf("/api/v1/alerts/%d", id)
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create creates an alert rule and returns its ID
func (s *RuleService) Create(ctx context.Context, spec RuleSpec) (int64, error) {
	var out struct {
		ID int64 `json:"id"`
	}
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/alerts", spec, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// Update replaces an alert rule's definition
func (s *RuleService) Update(ctx context.Context, id int64, spec RuleSpec) error {
	path := fmt.Sprintf("/api/v1/alerts/%d", id)
	return s.client.doRequest(ctx, http.MethodPut, path, spec, nil)
}

// Delete removes an alert rule
func (s *RuleService) Delete(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/api/v1/alerts/%d", id)
	return s.client.doRequest(ctx, http.MethodDelete, path, nil, nil)
}
