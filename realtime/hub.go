// Package realtime tracks connected websocket clients per user. The hub is
// an injected service with an explicit register/deregister lifecycle, not a
// package-level map, so it can be swapped out in tests.
package realtime

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Conn is the subset of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
}

// Message is the frame pushed to connected clients.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type Hub struct {
	mu sync.RWMutex
	// Each connection carries its own write lock: websocket connections
	// support one concurrent writer, and Emit may run from many goroutines.
	conns map[string]map[Conn]*sync.Mutex
	log   *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		conns: make(map[string]map[Conn]*sync.Mutex),
		log:   log,
	}
}

func (h *Hub) Register(userID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[Conn]*sync.Mutex)
	}
	h.conns[userID][c] = &sync.Mutex{}
}

func (h *Hub) Deregister(userID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns[userID], c)
	if len(h.conns[userID]) == 0 {
		delete(h.conns, userID)
	}
}

// Connected reports whether the user has at least one live connection.
func (h *Hub) Connected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID]) > 0
}

// Emit pushes an event to every connection of the user. Delivery is
// best-effort: it returns true if at least one write succeeded and never
// errors out, since the durable notification record is kept elsewhere.
func (h *Hub) Emit(userID string, event string, payload interface{}) bool {
	h.mu.RLock()
	targets := make(map[Conn]*sync.Mutex, len(h.conns[userID]))
	for c, wmu := range h.conns[userID] {
		targets[c] = wmu
	}
	h.mu.RUnlock()

	delivered := false
	for c, wmu := range targets {
		wmu.Lock()
		err := c.WriteJSON(Message{Event: event, Data: payload})
		wmu.Unlock()
		if err != nil {
			h.log.WithError(err).WithField("userId", userID).Debug("realtime write failed")
			continue
		}
		delivered = true
	}
	return delivered
}
