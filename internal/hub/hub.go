package hub

import (
	"encoding/json"
	"sync"
)

// Event represents a real-time event to be sent to clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Client represents a single live connection belonging to a user. It's
// essentially a channel that the SSE handler will listen to.
type Client chan []byte

// clientBuffer bounds how far a slow client may fall behind before events
// are dropped for it.
const clientBuffer = 16

// Hub manages the live subscribers of every user's inbox. A user may hold
// several subscriptions at once (one per open connection).
type Hub struct {
	users map[uint]map[Client]bool
	mu    sync.RWMutex
}

// New creates a new Hub.
func New() *Hub {
	return &Hub{
		users: make(map[uint]map[Client]bool),
	}
}

// Subscribe registers a new client for a user and returns it.
func (h *Hub) Subscribe(userID uint) Client {
	client := make(Client, clientBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.users[userID]; !ok {
		h.users[userID] = make(map[Client]bool)
	}
	h.users[userID][client] = true
	return client
}

// Unsubscribe removes a client and closes its channel. Unsubscribing a
// client that was never subscribed, or unsubscribing twice, is a no-op.
func (h *Hub) Unsubscribe(userID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.users[userID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client) // Close the channel to signal the SSE handler to stop.
	if len(clients) == 0 {
		delete(h.users, userID)
	}
}

// Publish sends an event to all of a user's subscribed clients.
func (h *Hub) Publish(userID uint, eventType string, payload any) {
	messageBytes, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.users[userID] {
		// Use a non-blocking send to prevent a slow client from blocking the hub.
		select {
		case client <- messageBytes:
		default:
			// Client channel is full, maybe they are disconnected or slow.
			// The unsubscribe logic will handle cleaning this up eventually.
		}
	}
}
