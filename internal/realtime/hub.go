package realtime

import (
	"sync"
)

// Client represents a single open UI surface.
// The network connection itself is managed in the ws handler.
type Client interface {
	ID() string
	Send(message []byte) bool
	// Focus asks the surface to bring itself to the front.
	Focus() bool
	Close()
}

// Broadcaster delivers a message to every open UI surface.
type Broadcaster interface {
	Broadcast(message []byte)
}

// Hub maintains the open UI surfaces and broadcasts events to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]Client
	order   []string
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]Client)}
}

// Register adds a client; a client with the same ID replaces the old one.
func (h *Hub) Register(client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID()]; !ok {
		h.order = append(h.order, client.ID())
	}
	h.clients[client.ID()] = client
}

// Unregister removes a client if it is still the registered one for its ID.
func (h *Hub) Unregister(client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	current, ok := h.clients[client.ID()]
	if !ok || current != client {
		return
	}
	delete(h.clients, client.ID())
	for i, id := range h.order {
		if id == client.ID() {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Clients returns the open surfaces in registration order.
func (h *Hub) Clients() []Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Client, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.clients[id])
	}
	return out
}

// Broadcast sends a message to all clients.
func (h *Hub) Broadcast(message []byte) {
	for _, c := range h.Clients() {
		if ok := c.Send(message); !ok {
			// client write failed; let the handler clean it up on its side
		}
	}
}

var _ Broadcaster = (*Hub)(nil)
