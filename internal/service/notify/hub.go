package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"wildwatch/internal/logger"
	"wildwatch/internal/model"
)

const writeWait = 5 * time.Second

// liveEvent is the JSON pushed to live viewers.
type liveEvent struct {
	model.Event
	Watchlisted bool   `json:"watchlisted"`
	Message     string `json:"message"`
}

// Hub keeps the set of live viewers and broadcasts events to them.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
}

// NewHub creates a Hub. Run must be started before viewers connect.
func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then closes
// every viewer connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", total)

		case message := <-h.broadcast:
			h.send(message)
		}
	}
}

// send writes message to every viewer outside the lock. Viewers whose write
// fails are dropped.
func (h *Hub) send(message []byte) {
	h.mutex.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.RUnlock()

	var failed []*websocket.Conn
	for _, client := range clients {
		client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Error("Error sending to viewer: %v", err)
			failed = append(failed, client)
		}
	}
	if len(failed) == 0 {
		return
	}

	h.mutex.Lock()
	for _, client := range failed {
		delete(h.clients, client)
	}
	h.mutex.Unlock()
	for _, client := range failed {
		client.Close()
	}
}

// Register adds a viewer. It is a no-op once the hub has stopped.
func (h *Hub) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister removes and closes a viewer.
func (h *Hub) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Name implements Sink.
func (h *Hub) Name() string { return "live" }

// Deliver queues the event for broadcast to every connected viewer.
func (h *Hub) Deliver(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(liveEvent{Event: n.Event, Watchlisted: n.Watchlisted, Message: n.Body})
	if err != nil {
		return fmt.Errorf("failed to marshal live event: %w", err)
	}

	select {
	case h.broadcast <- payload:
		return nil
	case <-h.done:
		return fmt.Errorf("live hub stopped")
	case <-ctx.Done():
		return fmt.Errorf("%w: live broadcast: %v", model.ErrTransientIO, ctx.Err())
	}
}
