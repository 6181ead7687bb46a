// Package orderfeed pushes booking events to business owners over WebSocket.
package orderfeed

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
	sendBuffer = 64
)

// Message is what a connected owner receives.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type connection struct {
	email string
	conn  *websocket.Conn
	send  chan []byte
}

// Hub tracks open feeds by owner email. One owner may have several tabs open.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]map[*connection]struct{}
}

func NewHub() *Hub {
	return &Hub{connections: make(map[string]map[*connection]struct{})}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.connections[c.email]
	if !ok {
		set = make(map[*connection]struct{})
		h.connections[c.email] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.connections[c.email]
	if !ok {
		return
	}
	if _, ok := set[c]; ok {
		delete(set, c)
		close(c.send)
	}
	if len(set) == 0 {
		delete(h.connections, c.email)
	}
}

// Connected reports how many feeds are open for email.
func (h *Hub) Connected(email string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[strings.ToLower(email)])
}

// SendToOwner delivers msg to every feed of email and reports whether at
// least one received it. Slow clients are skipped.
func (h *Hub) SendToOwner(email string, msg Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := false
	for c := range h.connections[strings.ToLower(email)] {
		select {
		case c.send <- data:
			delivered = true
		default:
		}
	}
	return delivered
}

// Close drops every connection. Used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for email, set := range h.connections {
		for c := range set {
			close(c.send)
		}
		delete(h.connections, email)
	}
}

// serve registers conn and blocks until the client goes away.
func (h *Hub) serve(conn *websocket.Conn, email string) {
	c := &connection{
		email: strings.ToLower(email),
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
	}
	h.register(c)

	go c.writePump()
	c.readPump(h)
}

// readPump only drains control frames; the feed is one-way.
func (c *connection) readPump(h *Hub) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *connection) writePump() {
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
