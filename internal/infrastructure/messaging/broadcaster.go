// Package messaging pushes operational events to connected ops dashboards
// over websockets.
package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/logging"
	"github.com/gorilla/websocket"
)

// Client represents a single connected ops dashboard.
type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

// Event is the wire format for one operational event.
type Event struct {
	Event     string         `json:"event"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Broadcaster fans operational events out to every connected client. It
// also pushes a periodic snapshot so dashboards converge even when no
// events fire.
type Broadcaster struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	events     chan []byte
	snapshot   func() any
	logger     *logging.ChanneledLogger
}

// NewBroadcaster creates a broadcaster. The snapshot func may be nil.
func NewBroadcaster(snapshot func() any, logger *logging.ChanneledLogger) *Broadcaster {
	return &Broadcaster{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan []byte, 64),
		snapshot:   snapshot,
		logger:     logger,
	}
}

// Run is the broadcaster's main loop. Run it as a goroutine.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.closeAll()
			return

		case client := <-b.register:
			b.mu.Lock()
			b.clients[client] = true
			b.mu.Unlock()
			if b.logger != nil {
				b.logger.System().Info("Ops client connected", "clients", b.ClientCount())
			}

		case client := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.Send)
			}
			b.mu.Unlock()

		case message := <-b.events:
			b.fanOut(message)

		case <-ticker.C:
			b.broadcastSnapshot()
		}
	}
}

// Register queues a client for registration.
func (b *Broadcaster) Register(client *Client) { b.register <- client }

// Unregister queues a client for removal.
func (b *Broadcaster) Unregister(client *Client) { b.unregister <- client }

// Publish sends an event to all connected clients. Non-blocking; events
// are dropped if the queue is full.
func (b *Broadcaster) Publish(event string, payload map[string]any) {
	message, err := json.Marshal(Event{Event: event, Payload: payload, Timestamp: time.Now().UTC()})
	if err != nil {
		return
	}
	select {
	case b.events <- message:
	default:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *Broadcaster) broadcastSnapshot() {
	if b.snapshot == nil || b.ClientCount() == 0 {
		return
	}
	message, err := json.Marshal(Event{Event: "snapshot", Payload: map[string]any{"state": b.snapshot()}, Timestamp: time.Now().UTC()})
	if err != nil {
		if b.logger != nil {
			b.logger.System().Error("Failed to marshal ops snapshot", "error", err.Error())
		}
		return
	}
	b.fanOut(message)
}

func (b *Broadcaster) fanOut(message []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for client := range b.clients {
		select {
		case client.Send <- message:
		default:
		}
	}
}

func (b *Broadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for client := range b.clients {
		close(client.Send)
		delete(b.clients, client)
	}
}
