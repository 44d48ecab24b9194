package client

import (
	"context"
	"net/http"
	"net/url"
)

// MetricService handles metric trend API calls
type MetricService struct {
	client *Client
}

// Trends retrieves each metric's trend over the given range ("24h",
// "7d", ...). Empty range uses the server default.
func (s *MetricService) Trends(ctx context.Context, rng string) (map[string]Trend, error) {
	path := "/api/v1/metrics"
	if rng != "" {
		path += "?range=" + url.QueryEscape(rng)
	}

	var trends map[string]Trend
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &trends); err != nil {
		return nil, err
	}
	return trends, nil
}
