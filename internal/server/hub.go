package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-edge/internal/metrics"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 1024

	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamMessage is the envelope pushed to stream clients
type StreamMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans decisions out to connected WebSocket clients. Slow clients drop
// messages rather than block the broadcaster.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
	mu         sync.RWMutex
	logger     *logrus.Entry
}

// NewHub creates a new stream hub
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		logger:     log.WithField("component", "stream"),
	}
}

// Run is the hub's event loop. It exits when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			metrics.UpdateStreamClients(0)
			return nil

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			metrics.UpdateStreamClients(n)
			h.logger.WithField("total_clients", n).Info("Stream client connected")

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.UpdateStreamClients(n)
			h.logger.WithField("total_clients", n).Info("Stream client disconnected")

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.logger.Warn("Dropping message for slow stream client")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish queues a typed message for every client. It never blocks.
func (h *Hub) Publish(msgType string, payload interface{}) {
	data, err := json.Marshal(StreamMessage{Type: msgType, Payload: payload})
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode stream message")
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("Stream broadcast queue full, dropping message")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS upgrades the request and registers the client.
// GET /ws/decisions
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	case <-r.Context().Done():
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump only services control frames; clients do not send data.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.WithError(err).Warn("Unexpected stream close")
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
