package gateway

import (
	"context"
	"sync"

	"github.com/prperemyshlev/spotlight-api/internal/domain"
	"github.com/prperemyshlev/spotlight-api/internal/dto"
	"github.com/prperemyshlev/spotlight-api/pkg/observability"
	"go.uber.org/zap"
)

// Hub tracks live connections, per-account presence and channel subscriptions.
// All sends to a client's buffer happen under mu so a buffer is never written after it is closed.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	accounts map[string]int
	channels map[string]map[*Client]struct{}

	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewHub creates an empty hub
func NewHub(metrics *observability.Metrics, logger *zap.Logger) *Hub {
	if metrics == nil {
		metrics = observability.NewNopMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Hub{
		clients:  make(map[*Client]struct{}),
		accounts: make(map[string]int),
		channels: make(map[string]map[*Client]struct{}),
		metrics:  metrics,
		logger:   logger,
	}
}

// register adds c, subscribes it to its account channel and announces the account
// when this is its first connection
func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.subscribeLocked(userChannel(c.accountID), c)
	h.accounts[c.accountID]++
	first := h.accounts[c.accountID] == 1
	h.mu.Unlock()

	h.metrics.ConnectionOpened(context.Background())
	h.logger.Debug("Gateway client connected", zap.String("account_id", c.accountID))

	if first {
		h.broadcastAll(Frame{Event: EventUserOnline, Data: presenceEvent{UserID: c.accountID}}, c)
	}
}

// unregister removes c from every channel and closes its send buffer. Safe to call more than once.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}

	delete(h.clients, c)
	for name, members := range h.channels {
		delete(members, c)
		if len(members) == 0 {
			delete(h.channels, name)
		}
	}
	close(c.send)

	h.accounts[c.accountID]--
	last := h.accounts[c.accountID] == 0
	if last {
		delete(h.accounts, c.accountID)
	}
	h.mu.Unlock()

	h.metrics.ConnectionClosed(context.Background())
	h.logger.Debug("Gateway client disconnected", zap.String("account_id", c.accountID))

	if last {
		h.broadcastAll(Frame{Event: EventUserOffline, Data: presenceEvent{UserID: c.accountID}}, nil)
	}
}

func (h *Hub) subscribe(channel string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		h.subscribeLocked(channel, c)
	}
}

func (h *Hub) subscribeLocked(channel string, c *Client) {
	members, ok := h.channels[channel]
	if !ok {
		members = make(map[*Client]struct{})
		h.channels[channel] = members
	}
	members[c] = struct{}{}
}

func (h *Hub) unsubscribe(channel string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.channels[channel]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.channels, channel)
		}
	}
}

func (h *Hub) subscribed(channel string, c *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.channels[channel][c]
	return ok
}

// Online reports whether accountID has at least one live connection
func (h *Hub) Online(accountID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.accounts[accountID] > 0
}

// PublishMessage sends a persisted message to every subscriber of its room
func (h *Hub) PublishMessage(msg *domain.ChatMessage) {
	h.broadcast(roomChannel(msg.RoomID), Frame{Event: EventMessage, Data: dto.NewChatMessageResponse(msg)}, nil)
}

// broadcast sends f to every subscriber of channel except the given client
func (h *Hub) broadcast(channel string, f Frame, except *Client) {
	payload, err := encode(f)
	if err != nil {
		h.logger.Error("Failed to encode gateway frame", zap.String("event", f.Event), zap.Error(err))
		return
	}

	h.mu.RLock()
	var slow []*Client
	for c := range h.channels[channel] {
		if c != except && !h.offerLocked(c, payload) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	h.drop(slow)
}

func (h *Hub) broadcastAll(f Frame, except *Client) {
	payload, err := encode(f)
	if err != nil {
		h.logger.Error("Failed to encode gateway frame", zap.String("event", f.Event), zap.Error(err))
		return
	}

	h.mu.RLock()
	var slow []*Client
	for c := range h.clients {
		if c != except && !h.offerLocked(c, payload) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	h.drop(slow)
}

// sendTo delivers f to a single client
func (h *Hub) sendTo(c *Client, f Frame) {
	payload, err := encode(f)
	if err != nil {
		h.logger.Error("Failed to encode gateway frame", zap.String("event", f.Event), zap.Error(err))
		return
	}

	h.mu.RLock()
	_, live := h.clients[c]
	ok := !live || h.offerLocked(c, payload)
	h.mu.RUnlock()

	if !ok {
		h.drop([]*Client{c})
	}
}

// offerLocked enqueues payload without blocking and reports false when the buffer is full
func (h *Hub) offerLocked(c *Client, payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (h *Hub) drop(clients []*Client) {
	for _, c := range clients {
		h.logger.Warn("Dropping slow gateway client", zap.String("account_id", c.accountID))
		h.unregister(c)
	}
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.unregister(c)
	}
}
