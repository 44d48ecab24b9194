package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// IncidentService handles incident-related API calls
type IncidentService struct {
	client *Client
}

// IncidentListOptions contains options for listing incidents
type IncidentListOptions struct {
	ListOptions
	Status   string
	Severity string
}

// CreateIncidentRequest represents a manually reported incident
type CreateIncidentRequest struct {
	Title    string `json:"title"`
	Severity string `json:"severity,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// List retrieves a page of incidents
func (s *IncidentService) List(ctx context.Context, opts *IncidentListOptions) (*Paginated[Incident], error) {
	query := url.Values{}
	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
		if opts.Status != "" {
			query.Set("status", opts.Status)
		}
		if opts.Severity != "" {
			query.Set("severity", opts.Severity)
		}
	}

	path := "/api/v1/incidents"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page Paginated[Incident]
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get retrieves one incident
func (s *IncidentService) Get(ctx context.Context, id int64) (*Incident, error) {
	var inc Incident
	path := fmt.Sprintf("/api/v1/incidents/%d", id)
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &inc); err != nil {
		return nil, err
	}
	return &inc, nil
}

// Create files a manually reported incident and returns its ID
func (s *IncidentService) Create(ctx context.Context, req CreateIncidentRequest) (int64, error) {
	var out struct {
		ID int64 `json:"id"`
	}
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/incidents", req, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// UpdateStatus applies a lifecycle transition
func (s *IncidentService) UpdateStatus(ctx context.Context, id int64, status string) error {
	path := fmt.Sprintf("/api/v1/incidents/%d/status", id)
	body := map[string]string{"status": status}
	return s.client.doRequest(ctx, http.MethodPatch, path, body, nil)
}

// Assign sets the incident assignee
func (s *IncidentService) Assign(ctx context.Context, id int64, assignedTo *int64, notes string) error {
	path := fmt.Sprintf("/api/v1/incidents/%d/assign", id)
	body := map[string]interface{}{"assigned_to": assignedTo, "notes": notes}
	return s.client.doRequest(ctx, http.MethodPatch, path, body, nil)
}

// BulkResolve resolves the listed incidents and returns the count
func (s *IncidentService) BulkResolve(ctx context.Context, ids []int64) (int64, error) {
	var out struct {
		Updated int64 `json:"updated"`
	}
	body := map[string][]int64{"ids": ids}
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/incidents/bulk_resolve", body, &out); err != nil {
		return 0, err
	}
	return out.Updated, nil
}
