// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/geoimport/internal/logging"
	"github.com/tomtom215/geoimport/internal/metrics"
	"github.com/tomtom215/geoimport/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication
const (
	MessageTypeExecution = "execution"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
)

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub fans execution status changes out to the clients watching them.
// It implements store.Notifier.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *models.Execution
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan *models.Execution, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
	}
}

// Add registers client with the running hub. It reports false once the hub
// has stopped.
func (h *Hub) Add(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Remove unregisters client. It does not block after the hub has stopped.
func (h *Hub) Remove(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
		client.close()
	}
}

// NotifyExecution queues a status change for delivery. It never blocks the
// store; updates are dropped when the hub falls behind.
func (h *Hub) NotifyExecution(exec *models.Execution) {
	select {
	case h.broadcast <- exec:
	default:
		logging.Warn().
			Str("execution_id", exec.ID).
			Str("status", string(exec.Status)).
			Msg("websocket broadcast channel full, dropping status update")
	}
}

// Serve runs the hub until ctx is cancelled. It implements suture.Service.
//
// Client lifecycle events are handled before broadcasts so that a client
// registered before an update always receives it.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case exec := <-h.broadcast:
			h.broadcastExecution(exec)
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (h *Hub) String() string {
	return "websocket-hub"
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	metrics.WebSocketConnections.Inc()
	logging.Debug().
		Str("execution_id", client.executionID).
		Int("total_clients", total).
		Msg("websocket client connected")
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
	}
	total := len(h.clients)
	h.mu.Unlock()
	if !ok {
		return
	}
	client.close()
	metrics.WebSocketConnections.Dec()
	logging.Debug().
		Str("execution_id", client.executionID).
		Int("total_clients", total).
		Msg("websocket client disconnected")
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	h.stopOnce.Do(func() { close(h.done) })
	clientCount := h.GetClientCount()
	h.closeAllClients()
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// sortedClients returns the clients matching keep in ID order.
// Caller must hold h.mu.
func (h *Hub) sortedClients(keep func(*Client) bool) []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		if keep(client) {
			clients = append(clients, client)
		}
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// broadcastExecution sends exec to the clients watching it. Slow clients
// are dropped. Once exec is terminal its watchers are closed after the
// final message is queued.
func (h *Hub) broadcastExecution(exec *models.Execution) {
	h.mu.Lock()
	defer h.mu.Unlock()

	message := Message{Type: MessageTypeExecution, Data: exec}
	terminal := exec.Status.IsTerminal()

	watchers := h.sortedClients(func(c *Client) bool { return c.executionID == exec.ID })
	for _, client := range watchers {
		sent := client.trySend(message)
		if !sent || terminal {
			client.close()
			delete(h.clients, client)
			metrics.WebSocketConnections.Dec()
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.sortedClients(func(*Client) bool { return true }) {
		client.close()
		delete(h.clients, client)
		metrics.WebSocketConnections.Dec()
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Watchers returns the number of clients watching executionID.
func (h *Hub) Watchers(executionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for client := range h.clients {
		if client.executionID == executionID {
			n++
		}
	}
	return n
}
