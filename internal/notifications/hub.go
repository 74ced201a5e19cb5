package notifications

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"postdeck/internal/middleware"
	"postdeck/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max streams per session
	maxConnsPerSession = 8
	// Max total streams
	maxTotalConns = 10000
)

var (
	ErrHubClosed          = errors.New("hub is shut down")
	ErrServerLimitReached = errors.New("server connection limit reached")
	ErrSessionLimit       = errors.New("session connection limit reached")
)

// Hub maps session ID to the clients streaming that session's draft.
type Hub struct {
	mu         sync.RWMutex
	conns      map[string]map[*Client]struct{}
	totalConns int
	closed     bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*Client]struct{})}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "draft hub" }

// Register a connection for a session. Returns the Client or an error if
// limits are exceeded.
func (h *Hub) Register(sessionID string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.totalConns >= maxTotalConns {
		return nil, ErrServerLimitReached
	}

	m, ok := h.conns[sessionID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[sessionID] = m
	}
	if len(m) >= maxConnsPerSession {
		return nil, ErrSessionLimit
	}

	client := NewClient(h, conn, sessionID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnections.Inc()
	return client, nil
}

// UnregisterClient removes a client. Unknown clients are ignored.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) bool {
	m, ok := h.conns[client.SessionID]
	if !ok {
		return false
	}
	if _, exists := m[client]; !exists {
		return false
	}
	delete(m, client)
	h.totalConns--
	observability.WebSocketConnections.Dec()
	if len(m) == 0 {
		delete(h.conns, client.SessionID)
	}
	return true
}

// Broadcast sends message to every client of a session.
func (h *Hub) Broadcast(sessionID, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.conns[sessionID]; ok {
		data := []byte(message)
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// BroadcastAll sends message to every connected client.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// CloseSession sends a final message to a session's clients and closes their
// streams.
func (h *Hub) CloseSession(sessionID, message string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.conns[sessionID]
	n := 0
	for c := range clients {
		if message != "" {
			c.TrySend([]byte(message))
		}
		h.removeLocked(c)
		c.closeSend()
		n++
	}
	return n
}

// CloseClient sends a final message to one client and closes its stream.
// It reports whether the client was still registered.
func (h *Hub) CloseClient(client *Client, message string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if message != "" {
		client.TrySend([]byte(message))
	}
	removed := h.removeLocked(client)
	client.closeSend()
	return removed
}

// Count returns the number of registered clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// SessionCount returns the number of clients streaming one session.
func (h *Hub) SessionCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[sessionID])
}

// StartWiring subscribes the hub to the notifier and forwards session
// messages to that session's clients and events to everyone.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartSubscriber(ctx, func(channel, payload string) {
		if channel == EventsChannel {
			h.BroadcastAll(payload)
			return
		}
		sessionID, ok := strings.CutPrefix(channel, "postdeck:session:")
		if !ok || sessionID == "" {
			middleware.Logger.Warn("invalid notification channel", slog.String("channel", channel))
			return
		}
		h.Broadcast(sessionID, payload)
	})
}

// Shutdown closes every stream and refuses new registrations.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	for _, clients := range h.conns {
		for c := range clients {
			c.closeSend()
			observability.WebSocketConnections.Dec()
		}
	}
	h.conns = make(map[string]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
