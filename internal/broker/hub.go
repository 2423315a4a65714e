package broker

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/iotchat/iotchat/internal/policy"
	"github.com/iotchat/iotchat/internal/topic"
)

// Authorizer answers whether an identity holds a messaging grant.
type Authorizer interface {
	Has(ctx context.Context, identityID string, p policy.Policy) (bool, error)
}

// Presence tracks which identities are connected.
type Presence interface {
	Online(identityID string) error
	Offline(identityID string) error
}

type publication struct {
	senderID string
	topic    string
	payload  json.RawMessage
}

// Hub routes publications to subscribed clients. One connection per
// identity; a new connection replaces the previous one.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client

	register   chan *client
	unregister chan *client
	publish    chan publication

	auth     Authorizer
	presence Presence
}

func NewHub(auth Authorizer, presence Presence) *Hub {
	return &Hub{
		clients:    make(map[string]*client),
		register:   make(chan *client),
		unregister: make(chan *client),
		publish:    make(chan publication, 256),
		auth:       auth,
		presence:   presence,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[c.identityID]; ok {
				close(old.send)
			}
			h.clients[c.identityID] = c
			h.mu.Unlock()
			slog.Info("client connected", "identity_id", c.identityID)
			if h.presence != nil {
				if err := h.presence.Online(c.identityID); err != nil {
					slog.Error("failed to mark online", "error", err)
				}
			}

		case c := <-h.unregister:
			h.mu.Lock()
			if existing, ok := h.clients[c.identityID]; ok && existing == c {
				delete(h.clients, c.identityID)
				close(c.send)
			}
			h.mu.Unlock()
			slog.Info("client disconnected", "identity_id", c.identityID)
			if h.presence != nil {
				if err := h.presence.Offline(c.identityID); err != nil {
					slog.Error("failed to mark offline", "error", err)
				}
			}

		case p := <-h.publish:
			data, err := encodeDelivery(p.topic, p.payload)
			if err != nil {
				continue
			}
			h.mu.RLock()
			for identityID, c := range h.clients {
				if !c.subscribedTo(p.topic) {
					continue
				}
				select {
				case c.send <- data:
				default:
					close(c.send)
					delete(h.clients, identityID)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// handlePublish enforces the publish policy: the caller needs the public
// publish grant and may only publish on a public-room delivery topic whose
// identity suffix is their own.
func (h *Hub) handlePublish(c *client, topicName string, payload json.RawMessage) {
	room, senderID, err := topic.ParseDelivery(topicName)
	if err != nil {
		slog.Debug("rejected publish on malformed topic", "topic", topicName, "error", err)
		return
	}
	if senderID != c.identityID {
		slog.Debug("rejected publish with foreign identity suffix",
			"topic", topicName, "identity_id", c.identityID)
		return
	}
	if !strings.HasPrefix(room, "room/"+topic.TypePublic+"/") {
		slog.Debug("rejected publish to non-public room", "topic", topicName)
		return
	}
	ok, err := h.auth.Has(context.Background(), c.identityID, policy.PublicPublish)
	if err != nil || !ok {
		slog.Debug("rejected unauthorized publish", "identity_id", c.identityID, "error", err)
		return
	}
	h.publish <- publication{senderID: c.identityID, topic: topicName, payload: payload}
}

// handleSubscribe enforces the subscribe and receive policies and records
// the subscription. Only public-room wildcard topics are accepted.
func (h *Hub) handleSubscribe(c *client, pattern string) {
	room, err := topic.RoomFromSubscription(pattern)
	if err != nil {
		slog.Debug("rejected malformed subscription", "topic", pattern, "error", err)
		return
	}
	if !strings.HasPrefix(room, "room/"+topic.TypePublic+"/") {
		slog.Debug("rejected subscription to non-public room", "topic", pattern)
		return
	}
	for _, p := range []policy.Policy{policy.PublicSubscribe, policy.PublicReceive} {
		ok, err := h.auth.Has(context.Background(), c.identityID, p)
		if err != nil || !ok {
			slog.Debug("rejected unauthorized subscription",
				"identity_id", c.identityID, "policy", p, "error", err)
			return
		}
	}
	c.addSubscription(pattern)
}

func (h *Hub) handleUnsubscribe(c *client, pattern string) {
	c.removeSubscription(pattern)
}

// Shutdown closes every client send channel.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		close(c.send)
	}
	h.clients = make(map[string]*client)
}
