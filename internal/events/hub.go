// Package events pushes store change notifications to browser sessions over
// WebSocket so they can reload stale data.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/odyssey-erp/boutique/internal/store"
)

// MessageType names a feed message.
type MessageType string

const (
	TypeConnected    MessageType = "connected"
	TypeStateChanged MessageType = "state_changed"
	TypeHeartbeat    MessageType = "heartbeat"
)

const (
	sendBuffer     = 64
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	heartbeatEvery = 30 * time.Second
)

// Message is sent to every connected session.
type Message struct {
	Type      MessageType `json:"type"`
	Action    string      `json:"action,omitempty"`
	Revision  int64       `json:"revision,omitempty"`
	ClientID  string      `json:"clientId,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans messages out to WebSocket sessions.
type Hub struct {
	logger     *slog.Logger
	upgrader   websocket.Upgrader
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	mu      sync.RWMutex
	clients map[string]*client
}

// NewHub builds a Hub. Call Run before serving connections.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
		clients:    make(map[string]*client),
	}
}

// Run dispatches messages until ctx is cancelled, then closes every session.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(heartbeatEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			h.mu.Unlock()
			h.deliver(c, Message{Type: TypeConnected, ClientID: c.id, Timestamp: time.Now().UTC()})
		case c := <-h.unregister:
			h.drop(c.id)
		case payload := <-h.broadcast:
			h.fanOut(payload)
		case <-ticker.C:
			if payload, err := json.Marshal(Message{Type: TypeHeartbeat, Timestamp: time.Now().UTC()}); err == nil {
				h.fanOut(payload)
			}
		}
	}
}

// Publish queues msg for every session. It never blocks; messages are
// dropped when the queue is full.
func (h *Hub) Publish(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("events: encode message", slog.Any("error", err))
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("events: broadcast queue full, message dropped", slog.String("type", string(msg.Type)))
	}
}

// Follow publishes every store change. The returned function stops it.
func (h *Hub) Follow(st interface {
	Subscribe(fn func(store.Change)) func()
}) func() {
	return st.Subscribe(func(c store.Change) {
		h.Publish(Message{Type: TypeStateChanged, Action: c.Action, Revision: c.Revision})
	})
}

// Clients returns the number of connected sessions.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and attaches the session to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("events: upgrade failed", slog.Any("error", err))
		return
	}
	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	case <-r.Context().Done():
		_ = conn.Close()
		return
	}
	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) deliver(c *client, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

// fanOut must run on the Run goroutine.
func (h *Hub) fanOut(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// slow reader
			close(c.send)
			delete(h.clients, id)
		}
	}
}

func (h *Hub) drop(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		close(c.send)
		delete(h.clients, id)
	}
}

// readPump discards client frames and detects disconnects.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("events: read", slog.String("client", c.id), slog.Any("error", err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
