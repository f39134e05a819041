// Package ws is the live push channel: a WebSocket hub that fans events out
// to every subscriber or to the subscribers of one disaster group.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/couchcryptid/disaster-response-service/internal/domain"
	"github.com/couchcryptid/disaster-response-service/internal/observability"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Client control actions.
const (
	ActionJoin  = "join_disaster"
	ActionLeave = "leave_disaster"
)

// Frame is the envelope of every server-to-client message.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ControlMessage is a client-to-server group membership request.
type ControlMessage struct {
	Action     string `json:"action"`
	DisasterID string `json:"disaster_id"`
}

// Hub tracks connections and their group memberships. It implements
// domain.Broadcaster.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu      sync.RWMutex
	clients map[*client]struct{}
	groups  map[string]map[*client]struct{}
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	closed chan struct{}
	once   sync.Once
}

// NewHub creates an empty hub. Origins are not checked; CORS policy is
// applied on the HTTP routes.
func NewHub(logger *slog.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger,
		metrics: metrics,
		clients: make(map[*client]struct{}),
		groups:  make(map[string]map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		closed: make(chan struct{}),
	}
	h.register(c)
	h.logger.Info("client connected", "remote_addr", r.RemoteAddr)

	go h.writePump(c)
	h.readPump(c)
}

// BroadcastGlobal sends the event to every connected client.
func (h *Hub) BroadcastGlobal(_ context.Context, event string, payload any) {
	msg, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		h.deliver(c, msg)
	}
	h.metrics.Broadcasts.WithLabelValues(event, "global").Inc()
}

// BroadcastToGroup sends the event to clients that joined group.
func (h *Hub) BroadcastToGroup(_ context.Context, group, event string, payload any) {
	msg, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.groups[group] {
		h.deliver(c, msg)
	}
	h.metrics.Broadcasts.WithLabelValues(event, "group").Inc()
}

// Clients returns the number of open connections.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GroupSize returns the number of clients subscribed to group.
func (h *Hub) GroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

func (h *Hub) encode(event string, payload any) ([]byte, bool) {
	msg, err := json.Marshal(Frame{Event: event, Data: payload})
	if err != nil {
		h.logger.Error("encode websocket frame", "event", event, "error", err)
		return nil, false
	}
	return msg, true
}

// deliver never blocks; a client whose buffer is full misses the event.
func (h *Hub) deliver(c *client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		h.logger.Warn("websocket client too slow, dropping event")
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.WSSubscribers.Inc()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for group, members := range h.groups {
		delete(members, c)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
	h.mu.Unlock()
	h.metrics.WSSubscribers.Dec()
}

func (h *Hub) join(c *client, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[group]
	if !ok {
		members = make(map[*client]struct{})
		h.groups[group] = members
	}
	members[c] = struct{}{}
}

func (h *Hub) leave(c *client, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.groups[group]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.close()
		h.logger.Info("client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ControlMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		h.handleControl(c, msg)
	}
}

func (h *Hub) handleControl(c *client, msg ControlMessage) {
	if msg.DisasterID == "" {
		h.logger.Debug("ignoring control message without disaster_id", "action", msg.Action)
		return
	}
	group := domain.DisasterGroup(msg.DisasterID)
	switch msg.Action {
	case ActionJoin:
		h.join(c, group)
		h.logger.Info("client joined disaster room", "disaster_id", msg.DisasterID)
	case ActionLeave:
		h.leave(c, group)
		h.logger.Info("client left disaster room", "disaster_id", msg.DisasterID)
	default:
		h.logger.Debug("ignoring unknown control action", "action", msg.Action)
	}
}

// writePump owns all writes on the connection and closes it on exit, which
// in turn ends readPump.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.closed:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) close() {
	c.once.Do(func() { close(c.closed) })
}
