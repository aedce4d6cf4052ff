package api

import (
	"bookcourier/internal/domain"     // Importing domain models
	"bookcourier/internal/middleware" // Caller lookup
	"context"                         // Hub shutdown
	"encoding/json"                   // Event encoding
	"net/http"                        // Origin checks
	"sync"                            // Client registry lock
	"time"                            // Pump deadlines

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/gorilla/websocket" // WebSocket transport
	"github.com/sirupsen/logrus"   // Structured logging
)

const (
	writeWait  = 10 * time.Second    // Time allowed to write a message
	pongWait   = 60 * time.Second    // Time allowed to read the next pong
	pingPeriod = (pongWait * 9) / 10 // Ping interval, shorter than pongWait
)

// OrderEvent is pushed to dashboards whenever an order changes
type OrderEvent struct {
	Type  string       `json:"type"`  // order.created, order.status, order.paid
	Order domain.Order `json:"order"` // Order after the change
}

type wsClient struct {
	conn  *websocket.Conn // Underlying connection
	send  chan []byte     // Outbound queue
	email string          // Caller email
	role  domain.Role     // Caller role at connect time
}

// wants reports whether the client may see an event about order
func (c *wsClient) wants(order domain.Order) bool {
	return c.role != domain.RoleUser || order.UserEmail == c.email
}

// Hub fans order events out to connected websocket clients
type Hub struct {
	upgrader   websocket.Upgrader
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan OrderEvent
	done       chan struct{} // Closed when Run returns

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

// NewHub creates a hub accepting the given browser origins
func NewHub(origins []string) *Hub {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin] // Non-browser clients send no Origin
			},
		},
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan OrderEvent, 256),
		done:       make(chan struct{}),
		clients:    make(map[*wsClient]struct{}),
	}
}

// Run is the hub event loop; it returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
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
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			logrus.WithField("email", c.email).Debug("ws: client connected")
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case ev := <-h.broadcast:
			msg, err := json.Marshal(ev)
			if err != nil {
				logrus.WithError(err).Error("ws: encode event")
				continue
			}
			h.mu.Lock()
			for c := range h.clients {
				if !c.wants(ev.Order) {
					continue
				}
				select {
				case c.send <- msg:
				default: // Slow consumer, drop it
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues an event without blocking the request path
func (h *Hub) Publish(eventType string, order domain.Order) {
	if h == nil {
		return
	}
	select {
	case h.broadcast <- OrderEvent{Type: eventType, Order: order}:
	default:
		logrus.WithField("order_id", order.ID).Warn("ws: broadcast queue full, event dropped")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// OrdersFeedHandler upgrades an authenticated request to the order event feed
func OrdersFeedHandler(h *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c) // Caller loaded by AuthMiddleware
		conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logrus.WithError(err).Warn("ws: upgrade failed")
			return
		}
		client := &wsClient{conn: conn, send: make(chan []byte, 64), email: user.Email, role: user.Role}
		select {
		case h.register <- client:
		case <-h.done:
			conn.Close()
			return
		}
		go client.writePump()
		go client.readPump(h)
	}
}

// readPump only watches for close and pong frames
func (c *wsClient) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).Debug("ws: unexpected close")
			}
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
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
