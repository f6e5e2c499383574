package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"batchprofit/internal/infrastructure"
)

// Event types pushed to dashboard clients.
const (
	TypeConnection      = "connection"
	TypeReloadStarted   = "reload_started"
	TypeReloadCompleted = "reload_completed"
	TypeReloadFailed    = "reload_failed"
)

// Envelope is the wire format for every message sent to clients.
type Envelope struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// Hub maintains the set of active clients and fans broadcast messages out to
// them. It implements the reload broadcaster used by the profit service.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger

	totalConnections int64

	quit    chan struct{}
	running bool
}

// NewHub creates a hub. Call Start before connecting clients.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		quit:       make(chan struct{}),
	}
}

// Start launches the hub loop. Safe to call more than once.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

// Stop shuts the hub loop down and disconnects all clients.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.totalConnections++
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Info("client registered",
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr),
				slog.Int("active_clients", count))

			client.enqueue(marshalEnvelope(TypeConnection, map[string]interface{}{
				"status":    "connected",
				"client_id": client.id,
			}))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Info("client unregistered",
				slog.String("client_id", client.id),
				slog.Duration("connected_for", time.Since(client.connectedAt)),
				slog.Int("active_clients", count))

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			for _, client := range clients {
				if !client.enqueue(message) {
					h.logger.Warn("dropping slow client",
						slog.String("client_id", client.id))
					h.disconnect(client)
				}
			}
		}
	}
}

func (h *Hub) disconnect(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
}

// BroadcastReload pushes a reload lifecycle event to every connected client.
func (h *Hub) BroadcastReload(event string, payload interface{}) {
	message := marshalEnvelope(event, payload)
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast queue full, dropping message",
			slog.String("event", event))
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func marshalEnvelope(event string, payload interface{}) []byte {
	env := Envelope{
		Type:      event,
		Data:      payload,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	data, err := json.Marshal(env)
	if err != nil {
		data, _ = json.Marshal(Envelope{
			Type:      event,
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}
	return data
}
