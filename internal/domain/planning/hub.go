// Package planning pushes committed schedule and booking changes to connected
// calendar clients over WebSocket.
package planning

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"gymplanner/internal/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
)

// connection is one calendar client. An empty coach filter receives every
// event. Only staff see who booked; members see ids on their own bookings.
type connection struct {
	userID string
	staff  bool
	conn   *websocket.Conn
	send   chan []byte
	coach  string
}

// Hub fans events out to every connected client. It satisfies
// events.Publisher.
type Hub struct {
	mu          sync.RWMutex
	connections map[*connection]struct{}
	logger      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		connections: make(map[*connection]struct{}),
		logger:      logger,
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = struct{}{}
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[c]; ok {
		delete(h.connections, c)
		close(c.send)
	}
}

// Clients is the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Publish never blocks: clients whose buffer is full miss the event.
func (h *Hub) Publish(_ context.Context, e events.Event) error {
	full, err := json.Marshal(e)
	if err != nil {
		return err
	}
	anon := e
	anon.MemberID = ""
	anon.ReservationID = ""
	redacted, err := json.Marshal(anon)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.connections {
		if c.coach != "" && c.coach != e.CoachID {
			continue
		}
		data := redacted
		if c.staff || (e.MemberID != "" && e.MemberID == c.userID) {
			data = full
		}
		select {
		case c.send <- data:
		default:
			h.logger.Debug("planning client too slow, event dropped", zap.String("user_id", c.userID))
		}
	}
	return nil
}

// ServeWS registers conn and blocks until the client goes away.
func (h *Hub) ServeWS(conn *websocket.Conn, userID string, staff bool, coachFilter string) {
	c := &connection{
		userID: userID,
		staff:  staff,
		conn:   conn,
		send:   make(chan []byte, 64),
		coach:  coachFilter,
	}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

// readPump only handles control frames and filter changes.
func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var cmd struct {
			Type    string `json:"type"`
			CoachID string `json:"coach_id"`
		}
		if err := json.Unmarshal(msg, &cmd); err != nil {
			continue
		}

		switch cmd.Type {
		case "follow_coach":
			h.mu.Lock()
			c.coach = cmd.CoachID
			h.mu.Unlock()
		case "follow_all":
			h.mu.Lock()
			c.coach = ""
			h.mu.Unlock()
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
