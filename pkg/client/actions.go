package client

import (
	"context"
	"net/http"
)

// ActionService handles admin action API calls
type ActionService struct {
	client *Client
}

// Execute runs an admin action against a target and returns its result
// payload.
func (s *ActionService) Execute(ctx context.Context, action string, targetID int64) (map[string]interface{}, error) {
	body := map[string]interface{}{
		"action":    action,
		"target_id": targetID,
	}

	var result map[string]interface{}
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/actions", body, &result); err != nil {
		return nil, err
	}
	return result, nil
}
