package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
)

// LogService handles audit trail API calls
type LogService struct {
	client *Client
}

// LogListOptions contains audit trail filtering options
type LogListOptions struct {
	ListOptions
	Start      string // RFC3339
	End        string // RFC3339
	UserID     *int64
	Action     string
	Subsystem  string
	EntityKind string
	Search     string
}

// List retrieves a filtered page of the audit trail
func (s *LogService) List(ctx context.Context, opts *LogListOptions) (*Paginated[AuditEvent], error) {
	query := url.Values{}
	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
		if opts.Start != "" {
			query.Set("start", opts.Start)
		}
		if opts.End != "" {
			query.Set("end", opts.End)
		}
		if opts.UserID != nil {
			query.Set("user", strconv.FormatInt(*opts.UserID, 10))
		}
		if opts.Action != "" {
			query.Set("action", opts.Action)
		}
		if opts.Subsystem != "" {
			query.Set("app", opts.Subsystem)
		}
		if opts.EntityKind != "" {
			query.Set("model", opts.EntityKind)
		}
		if opts.Search != "" {
			query.Set("q", opts.Search)
		}
	}

	path := "/api/v1/logs"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page Paginated[AuditEvent]
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Timeline retrieves one entity's chronological trail
func (s *LogService) Timeline(ctx context.Context, subsystem, entityKind, entityID string) ([]AuditEvent, error) {
	query := url.Values{}
	query.Set("app", subsystem)
	query.Set("model", entityKind)
	query.Set("object_id", entityID)
	path := "/api/v1/logs/timeline?" + query.Encode()

	var events []AuditEvent
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Recent retrieves the newest mutation events
func (s *LogService) Recent(ctx context.Context, subsystem string) ([]AuditEvent, error) {
	path := "/api/v1/live-events"
	if subsystem != "" {
		path += "?app=" + url.QueryEscape(subsystem)
	}

	var events []AuditEvent
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Tail opens the live feed WebSocket for a topic and invokes fn for
// every message until ctx is cancelled or the stream ends.
func (s *LogService) Tail(ctx context.Context, topic string, fn func(FeedMessage)) error {
	wsURL := strings.Replace(s.client.BaseURL(), "http", "ws", 1) +
		"/ws/live-events/" + url.PathEscape(topic)
	if token := s.client.Token(); token != "" {
		wsURL += "?token=" + url.QueryEscape(token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		var msg FeedMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		fn(msg)
	}
}
