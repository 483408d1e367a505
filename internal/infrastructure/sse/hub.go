package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tuwebai/safespot-sub004/internal/domain/outbox"
)

// Event is one message pushed to connected clients.
type Event struct {
	ID        string          `json:"id"`
	Name      string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Client is one active SSE connection identified by an anonymous user id
// and the rooms it subscribes to.
type Client struct {
	ID          string
	AnonymousID string
	Rooms       []string
	ConnectedAt time.Time
	Messages    chan *Event
}

// NewClient creates a client with a bounded message channel.
func NewClient(anonymousID string, rooms []string) *Client {
	return &Client{
		ID:          uuid.NewString(),
		AnonymousID: anonymousID,
		Rooms:       rooms,
		ConnectedAt: time.Now().UTC(),
		Messages:    make(chan *Event, 100),
	}
}

// Close closes the client's message channel.
func (c *Client) Close() {
	close(c.Messages)
}

// Hub manages SSE clients and routes events to them. A client whose channel
// is full drops the event rather than blocking the sender.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[clientID]; ok {
		c.Close()
		delete(h.clients, clientID)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastToUser sends to every connection of one anonymous user and
// returns how many connections accepted the event.
func (h *Hub) BroadcastToUser(anonymousID string, ev *Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for _, c := range h.clients {
		if c.AnonymousID == anonymousID && trySend(c, ev) {
			sent++
		}
	}
	return sent
}

// BroadcastToRoom sends to every client subscribed to a room and returns
// how many connections accepted the event.
func (h *Hub) BroadcastToRoom(roomID string, ev *Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for _, c := range h.clients {
		for _, r := range c.Rooms {
			if r == roomID {
				if trySend(c, ev) {
					sent++
				}
				break
			}
		}
	}
	return sent
}

// Emit implements the post-commit realtime sink: user-scoped events go to
// that user's connections, room-scoped events to the room's subscribers.
func (h *Hub) Emit(ctx context.Context, rev outbox.RealtimeEvent) error {
	_ = ctx
	data, err := json.Marshal(rev.Data)
	if err != nil {
		return err
	}
	ev := &Event{
		ID:        rev.ID,
		Name:      rev.Name,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
	if rev.UserID != "" {
		h.BroadcastToUser(rev.UserID, ev)
		return nil
	}
	if rev.RoomID != "" {
		h.BroadcastToRoom(rev.RoomID, ev)
		return nil
	}
	h.broadcastToAll(ev)
	return nil
}

func (h *Hub) broadcastToAll(ev *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		trySend(c, ev)
	}
}

func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.Close()
		delete(h.clients, id)
	}
}

func trySend(c *Client, ev *Event) bool {
	select {
	case c.Messages <- ev:
		return true
	default:
		return false
	}
}
