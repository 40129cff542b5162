// Package realtime pushes work order status changes to connected
// fleet and provider dashboards over websockets.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/octafabbri/hey/internal/dispatch"
	"github.com/octafabbri/hey/pkg/logging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StatusEvent is what subscribers receive when a request changes.
type StatusEvent struct {
	Type    string                   `json:"type"`
	Request *dispatch.ServiceRequest `json:"request"`
}

type client struct {
	conn *websocket.Conn
	send chan StatusEvent
	// userID filters events: a fleet user sees only their own
	// requests; providers subscribe with an empty filter and see all.
	userID string
}

// Hub tracks websocket subscribers and fans status events out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  *logging.Logger
}

func NewHub(logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
	}
}

// BroadcastStatusChange delivers the event to every subscriber whose
// filter matches. Slow clients are dropped rather than blocking the
// caller.
func (h *Hub) BroadcastStatusChange(req *dispatch.ServiceRequest) {
	event := StatusEvent{Type: "status_change", Request: req}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.userID != "" && c.userID != req.CreatedByID {
			continue
		}
		select {
		case c.send <- event:
		default:
			h.logger.Warn("dropping slow realtime subscriber")
		}
	}
}

// HandleWebSocket upgrades the connection and streams status events
// until the client goes away. The optional ?user= parameter scopes
// events to one fleet user's requests.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err.Error())
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan StatusEvent, 16),
		userID: r.URL.Query().Get("user"),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) writeLoop(c *client) {
	for event := range c.send {
		payload, err := json.Marshal(event)
		if err != nil {
			h.logger.Error("failed to encode realtime event", "error", err.Error())
			continue
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// readLoop drains the connection so pings and closes are processed;
// subscribers never send application data.
func (h *Hub) readLoop(c *client) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		close(c.send)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("realtime subscriber read error", "error", err.Error())
			}
			return
		}
	}
}

// SubscriberCount reports connected clients, used by health checks.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
