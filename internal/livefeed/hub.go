package livefeed

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dishom/opsboard/internal/pkg/logger"
	"github.com/dishom/opsboard/internal/pkg/metrics"
)

// Reserved topics.
const (
	// TopicAll is the wildcard: its subscribers receive every publish.
	TopicAll = "all"
	// TopicIncidents carries incident-open events from the evaluator.
	TopicIncidents = "incidents"
)

// Message event types.
const (
	TypeAuditEvent   = "audit_event"
	TypeIncidentOpen = "incident_open"
)

// Message is the envelope delivered to subscribers.
type Message struct {
	Type      string      `json:"type"`
	Topic     string      `json:"app"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Subscriber is one connected consumer of a topic. Messages arrive on C
// in publish order. When the subscriber falls behind its buffer, the hub
// closes C and forgets it.
type Subscriber struct {
	ID    string
	Topic string
	C     chan []byte
}

// Hub fans out published events to subscriber groups keyed by subsystem
// tag. Delivery is best-effort and never blocks the publisher.
type Hub struct {
	mu     sync.Mutex
	groups map[string]map[string]*Subscriber
	buffer int
	logger *logger.Logger
	closed bool
}

// NewHub creates a hub with the given per-subscriber buffer capacity.
func NewHub(buffer int, log *logger.Logger) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		groups: make(map[string]map[string]*Subscriber),
		buffer: buffer,
		logger: log,
	}
}

// Subscribe registers a consumer for the given topic. TopicAll receives
// every publish. Subscribers only see events published after they join.
func (h *Hub) Subscribe(topic string) *Subscriber {
	sub := &Subscriber{
		ID:    uuid.New().String(),
		Topic: topic,
		C:     make(chan []byte, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.C)
		return sub
	}
	group, ok := h.groups[topic]
	if !ok {
		group = make(map[string]*Subscriber)
		h.groups[topic] = group
	}
	group[sub.ID] = sub
	metrics.SetSubscribers(float64(h.countLocked()))

	h.logger.WithFields(map[string]interface{}{
		"subscriber_id": sub.ID,
		"topic":         topic,
	}).Debug("live feed subscriber joined")

	return sub
}

// Unsubscribe removes a consumer and closes its channel. Safe to call
// after the hub has already dropped the subscriber.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

// Publish delivers the message to every subscriber of the exact topic
// and every wildcard subscriber. A subscriber whose buffer is full is
// disconnected instead of stalling anyone else.
func (h *Hub) Publish(topic string, msg Message) {
	msg.Topic = topic
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.ErrorWithErr(err, "live feed payload marshal failed")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	h.deliverLocked(h.groups[topic], payload)
	if topic != TopicAll {
		h.deliverLocked(h.groups[TopicAll], payload)
	}
	metrics.RecordPublish(topic)
}

// Close disconnects every subscriber and rejects future publishes.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, group := range h.groups {
		for _, sub := range group {
			close(sub.C)
		}
	}
	h.groups = make(map[string]map[string]*Subscriber)
	metrics.SetSubscribers(0)
}

func (h *Hub) deliverLocked(group map[string]*Subscriber, payload []byte) {
	for _, sub := range group {
		select {
		case sub.C <- payload:
		default:
			// Slow consumer: drop the subscriber, not the publisher.
			h.removeLocked(sub)
			metrics.RecordDroppedSubscriber()
			h.logger.WithFields(map[string]interface{}{
				"subscriber_id": sub.ID,
				"topic":         sub.Topic,
			}).Warn("live feed subscriber dropped on overflow")
		}
	}
}

func (h *Hub) removeLocked(sub *Subscriber) {
	group, ok := h.groups[sub.Topic]
	if !ok {
		return
	}
	if _, ok := group[sub.ID]; !ok {
		return
	}
	delete(group, sub.ID)
	if len(group) == 0 {
		delete(h.groups, sub.Topic)
	}
	close(sub.C)
	metrics.SetSubscribers(float64(h.countLocked()))
}

func (h *Hub) countLocked() int {
	n := 0
	for _, group := range h.groups {
		n += len(group)
	}
	return n
}
