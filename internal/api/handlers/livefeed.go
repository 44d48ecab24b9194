package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/dishom/opsboard/internal/livefeed"
	"github.com/dishom/opsboard/internal/pkg/logger"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced by the CORS layer in front.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveFeedHandler bridges WebSocket connections to hub subscriptions.
type LiveFeedHandler struct {
	hub    *livefeed.Hub
	logger *logger.Logger
}

func NewLiveFeedHandler(hub *livefeed.Hub, log *logger.Logger) *LiveFeedHandler {
	return &LiveFeedHandler{hub: hub, logger: log}
}

// Serve upgrades the connection and streams the requested topic until
// the client disconnects or falls too far behind.
// @Summary Live event stream
// @Description WebSocket stream of audit and incident events for one subsystem topic. Use "all" for everything.
// @Tags Live
// @Param app path string true "Topic: subsystem label, all, or incidents"
// @Router /ws/live-events/{app} [get]
func (h *LiveFeedHandler) Serve(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "app")
	if topic == "" {
		topic = livefeed.TopicAll
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	sub := h.hub.Subscribe(topic)
	defer h.hub.Unsubscribe(sub)

	go h.writePump(conn, sub)
	h.readPump(conn)
}

// writePump moves hub payloads onto the wire and keeps the connection
// alive with pings. It exits when the subscription channel closes,
// which also covers overflow drops.
func (h *LiveFeedHandler) writePump(conn *websocket.Conn, sub *livefeed.Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case payload, ok := <-sub.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream closed"))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client frames and notices disconnects. The feed is
// one-way; clients only listen.
func (h *LiveFeedHandler) readPump(conn *websocket.Conn) {
	defer conn.Close()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.WithError(err).Debug("websocket read ended")
			}
			return
		}
	}
}
