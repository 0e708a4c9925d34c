// Package realtime pushes JSON frames to the websocket connections of a user.
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// textMessage is the websocket text frame opcode.
const textMessage = 1

const (
	defaultSendBuffer = 16
	defaultWriteWait  = 10 * time.Second
)

// Conn is the write side of a websocket connection.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// client owns one connection. Only its writer goroutine touches conn writes.
type client struct {
	conn Conn
	send chan []byte
	done chan struct{}
}

// Hub tracks open connections per user id. Push never waits on a socket:
// frames are queued per connection and a full queue closes the connection.
type Hub struct {
	mu         sync.Mutex
	conns      map[string]map[*client]struct{}
	sendBuffer int
	writeWait  time.Duration
	logger     *zap.Logger
}

// Option tunes a Hub.
type Option func(*Hub)

// WithSendBuffer sets how many frames may wait per connection.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithWriteWait bounds a single socket write.
func WithWriteWait(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.writeWait = d
		}
	}
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger, opts ...Option) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		conns:      map[string]map[*client]struct{}{},
		sendBuffer: defaultSendBuffer,
		writeWait:  defaultWriteWait,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds conn for userID, starts its writer and returns the function
// that removes it. The returned function waits for the writer to stop.
func (h *Hub) Register(userID string, conn Conn) func() {
	c := &client{conn: conn, send: make(chan []byte, h.sendBuffer), done: make(chan struct{})}

	h.mu.Lock()
	set, ok := h.conns[userID]
	if !ok {
		set = map[*client]struct{}{}
		h.conns[userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(userID, c)
	return func() {
		h.mu.Lock()
		h.detach(userID, c)
		h.mu.Unlock()
		<-c.done
	}
}

func (h *Hub) writeLoop(userID string, c *client) {
	defer close(c.done)
	for data := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(h.writeWait)); err != nil {
			h.logger.Debug("realtime write deadline failed", zap.String("user_id", userID), zap.Error(err))
		}
		if err := c.conn.WriteMessage(textMessage, data); err != nil {
			h.logger.Debug("dropping realtime connection", zap.String("user_id", userID), zap.Error(err))
			h.mu.Lock()
			h.detach(userID, c)
			h.mu.Unlock()
			_ = c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}

// detach removes c and closes its queue. Callers hold h.mu.
func (h *Hub) detach(userID string, c *client) {
	set, ok := h.conns[userID]
	if !ok {
		return
	}
	if _, member := set[c]; !member {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.conns, userID)
	}
}

// Connected reports how many connections userID holds.
func (h *Hub) Connected(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[userID])
}

// Push queues payload on every connection of userID and reports how many
// accepted it. A connection whose queue is full is closed.
func (h *Hub) Push(userID string, payload any) int {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("realtime payload encoding failed", zap.Error(err))
		return 0
	}

	var overflowed []*client
	delivered := 0
	h.mu.Lock()
	for c := range h.conns[userID] {
		select {
		case c.send <- data:
			delivered++
		default:
			overflowed = append(overflowed, c)
		}
	}
	for _, c := range overflowed {
		h.detach(userID, c)
	}
	h.mu.Unlock()

	for _, c := range overflowed {
		h.logger.Warn("realtime connection too slow; closing", zap.String("user_id", userID))
		_ = c.conn.Close()
	}
	return delivered
}
