// Package presence keeps the in-memory roster of members connected over
// websocket and fans join/leave events out to members of the same choir.
package presence

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/choir-api/internal/metrics"
	"github.com/iliyamo/choir-api/internal/model"
)

const (
	EventJoin  = "presence.join"
	EventLeave = "presence.leave"
	EventPong  = "pong"
)

// Message is the envelope written to and read from websocket clients.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Entry describes one open connection.
type Entry struct {
	ConnectionID string    `json:"connectionId"`
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	Name         string    `json:"name,omitempty"`
	Role         string    `json:"role"`
	ChoirID      *string   `json:"choirId"`
	ConnectedAt  time.Time `json:"connectedAt"`
}

// Hub is the roster. One user may hold several connections; each is its own
// entry.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     *zap.Logger
	now     func() time.Time
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{clients: map[string]*Client{}, log: log, now: time.Now}
}

// Join registers a connection for p and announces it to the choir. The
// returned client is not attached to a socket until Serve is called.
func (h *Hub) Join(p *model.Principal) *Client {
	c := &Client{
		hub:  h,
		send: make(chan Message, sendBuffer),
		entry: Entry{
			ConnectionID: uuid.NewString(),
			UserID:       p.ID,
			Username:     p.Username,
			Name:         p.Name,
			Role:         string(p.Role),
			ChoirID:      p.ChoirID,
			ConnectedAt:  h.now().UTC(),
		},
	}
	h.mu.Lock()
	h.clients[c.entry.ConnectionID] = c
	h.mu.Unlock()
	metrics.OnlineConnections.Inc()
	h.broadcast(c.entry.ChoirID, Message{Type: EventJoin, Data: c.entry}, c.entry.ConnectionID)
	return c
}

// Leave removes a connection. Calling it twice is harmless.
func (h *Hub) Leave(connectionID string) {
	h.mu.Lock()
	c, ok := h.clients[connectionID]
	if ok {
		delete(h.clients, connectionID)
		close(c.send)
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	metrics.OnlineConnections.Dec()
	h.broadcast(c.entry.ChoirID, Message{Type: EventLeave, Data: c.entry}, "")
}

// Online lists the connections visible within scope, oldest first.
func (h *Hub) Online(s model.Scope) []Entry {
	h.mu.RLock()
	out := make([]Entry, 0, len(h.clients))
	for _, c := range h.clients {
		if s.Global() || sameChoir(s.ChoirID, c.entry.ChoirID) {
			out = append(out, c.entry)
		}
	}
	h.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].ConnectedAt.Equal(out[j].ConnectedAt) {
			return out[i].ConnectionID < out[j].ConnectionID
		}
		return out[i].ConnectedAt.Before(out[j].ConnectedAt)
	})
	return out
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcast queues msg for every connection of choirID except skip. Slow
// clients whose buffer is full miss the event.
func (h *Hub) broadcast(choirID *string, msg Message, skip string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.clients {
		if id == skip || !sameChoir(choirID, c.entry.ChoirID) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			h.log.Debug("presence event dropped", zap.String("connection_id", id), zap.String("type", msg.Type))
		}
	}
}

// sameChoir treats two tenant-less connections as the same group.
func sameChoir(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
