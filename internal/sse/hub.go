// Package sse fans server-sent events out to connected clients.
package sse

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Event is one server-sent event. Data is written verbatim after "data:".
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client is one connected stream.
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// Hub tracks connected clients. Slow clients drop events rather than
// blocking the broadcaster.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	log.Debug().Str("client", client.ID).Str("user", client.UserID).Int("total", len(h.clients)).Msg("sse: client registered")
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		log.Debug().Str("client", clientID).Int("total", len(h.clients)).Msg("sse: client unregistered")
	}
}

func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			log.Warn().Str("client", client.ID).Str("event", event.EventType).Msg("sse: buffer full, event dropped")
		}
	}
}

// Clientes returns the number of connected clients.
func (h *Hub) Clientes() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
