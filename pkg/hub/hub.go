package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-facecount/internal/log"
)

// Sender is the observer side of the hub
type Sender interface {
	Send(msg Message) bool
	Close()
}

// registration is acknowledged once the sender is in the client set
type registration struct {
	sender Sender
	done   chan struct{}
}

// Hub maintains the set of observers and broadcasts messages to them.
// Run must be running for registration and broadcast to make progress.
type Hub struct {
	name string
	log  *slog.Logger

	clients map[Sender]bool
	mu      sync.RWMutex

	broadcast  chan Message
	register   chan registration
	unregister chan Sender

	running atomic.Bool
	dropped atomic.Uint64
	sent    atomic.Uint64
}

// New creates a new Hub
func New(name string) *Hub {
	return &Hub{
		name:       name,
		log:        log.With("hub", name),
		clients:    make(map[Sender]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan registration),
		unregister: make(chan Sender),
	}
}

// Run serves registrations and broadcasts until ctx is done.
// All observers are closed on return.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer h.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				c.Close()
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case r := <-h.register:
			h.mu.Lock()
			h.clients[r.sender] = true
			count := len(h.clients)
			h.mu.Unlock()
			close(r.done)
			h.log.Debug("observer connected", "observers", count)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.Close()
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("observer disconnected", "observers", count)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if c.Send(msg) {
					h.sent.Add(1)
					continue
				}
				// Buffer full: the observer is too slow, drop it
				delete(h.clients, c)
				c.Close()
				h.dropped.Add(1)
				h.log.Warn("dropped slow observer")
			}
			h.mu.Unlock()
		}
	}
}

// Register adds an observer. It blocks until Run has added it or ctx is done.
func (h *Hub) Register(ctx context.Context, c Sender) bool {
	r := registration{sender: c, done: make(chan struct{})}
	select {
	case h.register <- r:
	case <-ctx.Done():
		return false
	}
	<-r.done
	return true
}

// Unregister removes an observer and closes it
func (h *Hub) Unregister(ctx context.Context, c Sender) {
	select {
	case h.unregister <- c:
	case <-ctx.Done():
	}
}

// Broadcast queues a message for all observers. It never blocks; when the
// queue is full the message is dropped.
func (h *Hub) Broadcast(msg Message) bool {
	select {
	case h.broadcast <- msg:
		return true
	default:
		h.log.Warn("broadcast queue full, dropping message")
		return false
	}
}

// BroadcastJSON encodes and broadcasts a JSON message
func (h *Hub) BroadcastJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// ClientCount returns the number of registered observers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning returns whether Run is active
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}

// Stats contains delivery counters
type Stats struct {
	Observers int    `json:"observers"`
	Sent      uint64 `json:"sent"`
	Dropped   uint64 `json:"dropped"`
}

// GetStats returns delivery counters
func (h *Hub) GetStats() Stats {
	return Stats{
		Observers: h.ClientCount(),
		Sent:      h.sent.Load(),
		Dropped:   h.dropped.Load(),
	}
}
