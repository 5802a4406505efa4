package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/pkg/metrics"
)

// Message is a frame pushed to a connected user
type Message struct {
	// Type of message: "notification"
	Type string `json:"type"`

	Notification *models.Notification `json:"notification,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

type delivery struct {
	userID int64
	data   []byte
}

// Hub maintains the live connections of each user and pushes notifications to them
type Hub struct {
	// Registered clients organized by user ID
	clients map[int64]map[*Client]bool

	// Outbound frames addressed to a user
	broadcast chan delivery

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Guards clients for ConnectedCount
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan delivery, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[int64]map[*Client]bool),
		logger:     logger.With().Str("component", "ws_hub").Logger(),
	}
}

// Run handles registrations and deliveries until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case d := <-h.broadcast:
			h.deliver(d)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true
	metrics.WebsocketConnections.Inc()

	h.logger.Debug().Int64("userID", client.userID).Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

// removeLocked drops client and closes its send channel. Caller holds mu.
func (h *Hub) removeLocked(client *Client) {
	conns, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	close(client.send)
	metrics.WebsocketConnections.Dec()
	if len(conns) == 0 {
		delete(h.clients, client.userID)
	}
	h.logger.Debug().Int64("userID", client.userID).Msg("Client unregistered")
}

// deliver pushes to every connection of the user. A client whose buffer is
// full is dropped on the spot rather than blocking the loop.
func (h *Hub) deliver(d delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients[d.userID] {
		select {
		case client.send <- d.data:
		default:
			h.logger.Warn().Int64("userID", d.userID).Msg("Dropping slow websocket client")
			h.removeLocked(client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conns := range h.clients {
		for client := range conns {
			h.removeLocked(client)
		}
	}
}

// PushNotification queues n for the live connections of its user. It never
// blocks: when the queue is full the push is skipped, the notification stays
// stored either way.
func (h *Hub) PushNotification(n *models.Notification) {
	data, err := json.Marshal(Message{Type: "notification", Notification: n, Timestamp: time.Now()})
	if err != nil {
		h.logger.Error().Err(err).Int64("userID", n.UserID).Msg("Failed to marshal notification for push")
		return
	}

	select {
	case h.broadcast <- delivery{userID: n.UserID, data: data}:
	default:
		h.logger.Warn().Int64("userID", n.UserID).Msg("Push queue full, skipping live delivery")
	}
}

// attach hands a new client to the loop, false once the hub has stopped
func (h *Hub) attach(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// detach is the counterpart of attach
func (h *Hub) detach(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ConnectedCount returns the number of open connections for a user
func (h *Hub) ConnectedCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
