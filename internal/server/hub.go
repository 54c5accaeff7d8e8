// Package server coordinates client registration, message broadcast, and
// connection cleanup for the chat relay via the Hub type.
package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Tyrowin/exchange-chat/internal/metrics"
)

// maxNameAttempts bounds how often the namer is asked for a fresh name
// before a numeric suffix is used to break the tie.
const maxNameAttempts = 8

// Hub manages all WebSocket client connections and handles message broadcasting.
// Membership is guarded by a mutex; no lock is held while a client's socket is
// read or written.
type Hub struct {
	clients map[*Client]struct{}
	names   map[string]struct{}
	mutex   sync.RWMutex
	namer   Namer
	metrics *metrics.Metrics
	logger  *zap.Logger
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewHub creates an empty Hub. A nil namer selects RandomNamer.
func NewHub(namer Namer, m *metrics.Metrics, logger *zap.Logger) *Hub {
	if namer == nil {
		namer = NewRandomNamer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients: make(map[*Client]struct{}),
		names:   make(map[string]struct{}),
		namer:   namer,
		metrics: m,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register assigns the client a display name unique among current members,
// adds it to the hub and returns the name.
func (h *Hub) Register(client *Client) string {
	h.mutex.Lock()
	name, clientCount := h.registerLocked(client)
	h.mutex.Unlock()

	h.logRegistered(client, clientCount)
	return name
}

func (h *Hub) registerLocked(client *Client) (string, int) {
	name := h.uniqueNameLocked()
	client.name = name
	client.closed = false
	h.clients[client] = struct{}{}
	h.names[name] = struct{}{}
	return name, len(h.clients)
}

func (h *Hub) logRegistered(client *Client, clientCount int) {
	h.metrics.SetConnected(clientCount)
	h.logger.Info("Client registered",
		zap.String("addr", client.addr),
		zap.String("name", client.name),
		zap.String("id", client.id),
		zap.Int("total", clientCount))
}

func (h *Hub) uniqueNameLocked() string {
	var name string
	for i := 0; i < maxNameAttempts; i++ {
		name = h.namer.Name()
		if _, taken := h.names[name]; !taken {
			return name
		}
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s %d", name, n)
		if _, taken := h.names[candidate]; !taken {
			return candidate
		}
	}
}

// Unregister removes the client and closes its send channel. The caller
// guarantees the client was registered; a repeated call is ignored.
func (h *Hub) Unregister(client *Client) {
	h.mutex.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mutex.Unlock()
		return
	}
	delete(h.clients, client)
	delete(h.names, client.name)
	client.closed = true
	clientCount := len(h.clients)
	h.mutex.Unlock()

	// Close the channel after releasing the lock
	close(client.send)

	h.metrics.SetConnected(clientCount)
	h.logger.Info("Client unregistered",
		zap.String("addr", client.addr),
		zap.String("name", client.name),
		zap.Int("total", clientCount))
}

// Count returns the number of registered clients.
func (h *Hub) Count() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Broadcast queues payload for every client registered at call time,
// the sender included. Clients that cannot accept the message are logged and
// skipped. It returns the number of clients the message was queued for.
func (h *Hub) Broadcast(payload []byte) int {
	clients := h.getClientSnapshot()

	delivered := 0
	for _, client := range clients {
		if h.safeSend(client, payload) {
			delivered++
			continue
		}
		h.logger.Warn("Dropping message for client",
			zap.String("addr", client.addr),
			zap.String("name", client.name))
	}

	failed := len(clients) - delivered
	h.metrics.ObserveBroadcast(failed)
	h.logger.Debug("Broadcast message",
		zap.Int("targets", len(clients)),
		zap.Int("delivered", delivered),
		zap.Int("bytes", len(payload)))
	return delivered
}

// getClientSnapshot returns a thread-safe snapshot of all current clients
func (h *Hub) getClientSnapshot() []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

// safeSend performs a non-blocking send while holding the read lock, so
// Unregister cannot close the channel underneath it.
func (h *Hub) safeSend(client *Client, message []byte) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if _, exists := h.clients[client]; !exists || client.closed {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// Serve registers the client and starts its read and write pumps. Lines read
// from the client are handed to router. Once Shutdown has begun the client is
// refused and its connection closed.
func (h *Hub) Serve(client *Client, router *Router) {
	h.mutex.Lock()
	if h.ctx.Err() != nil {
		h.mutex.Unlock()
		h.logger.Info("Refusing client during shutdown", zap.String("addr", client.addr))
		client.closeConnection()
		return
	}
	_, clientCount := h.registerLocked(client)
	h.wg.Add(2)
	h.mutex.Unlock()

	h.logRegistered(client, clientCount)

	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump(h.ctx, router)
	}()
}

// shutdownClients closes every client connection; the read pumps then
// unregister their clients.
func (h *Hub) shutdownClients() {
	clients := h.getClientSnapshot()

	for _, client := range clients {
		client.closeConnection()
	}

	h.logger.Info("Closed client connections", zap.Int("count", len(clients)))
}

// Shutdown cancels in-flight work, closes all connections and waits for the
// pump goroutines to finish or the timeout to elapse.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.logger.Info("Initiating hub shutdown")

	// Cancelling under the lock orders every Serve either before this point,
	// so its client is in the snapshot and its pumps in wg, or after it.
	h.mutex.Lock()
	h.cancel()
	h.mutex.Unlock()
	h.shutdownClients()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.logger.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
