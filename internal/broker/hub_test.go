package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/iotchat/iotchat/internal/policy"
)

type allowAll struct{}

func (allowAll) Has(context.Context, string, policy.Policy) (bool, error) { return true, nil }

type denyAll struct{}

func (denyAll) Has(context.Context, string, policy.Policy) (bool, error) { return false, nil }

func newTestClient(h *Hub, identityID string) *client {
	return &client{
		hub:           h,
		identityID:    identityID,
		subscriptions: make(map[string]bool),
		send:          make(chan []byte, 8),
	}
}

func receive(t *testing.T, c *client) Delivery {
	t.Helper()
	select {
	case data := <-c.send:
		var d Delivery
		if err := json.Unmarshal(data, &d); err != nil {
			t.Fatalf("decoding delivery: %v", err)
		}
		return d
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
		return Delivery{}
	}
}

func TestHubRoutesToWildcardSubscribers(t *testing.T) {
	h := NewHub(allowAll{}, nil)
	go h.Run()

	receiver := newTestClient(h, "local:0bee01")
	sender := newTestClient(h, "local:5e4de1")
	h.register <- receiver
	h.register <- sender

	h.handleSubscribe(receiver, "room/public/room1/+")
	payload := json.RawMessage(`{"message":"hello"}`)
	h.handlePublish(sender, "room/public/room1/local:5e4de1", payload)

	d := receive(t, receiver)
	if d.Topic != "room/public/room1/local:5e4de1" {
		t.Errorf("delivery topic = %q", d.Topic)
	}
	if string(d.Payload) != `{"message":"hello"}` {
		t.Errorf("delivery payload = %s", d.Payload)
	}
}

func TestHubDoesNotRouteToOtherRooms(t *testing.T) {
	h := NewHub(allowAll{}, nil)
	go h.Run()

	receiver := newTestClient(h, "local:0bee01")
	sender := newTestClient(h, "local:5e4de1")
	h.register <- receiver
	h.register <- sender

	h.handleSubscribe(receiver, "room/public/room2/+")
	h.handlePublish(sender, "room/public/room1/local:5e4de1", json.RawMessage(`{}`))

	select {
	case data := <-receiver.send:
		t.Fatalf("unexpected delivery: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubRejectsForeignIdentitySuffix(t *testing.T) {
	h := NewHub(allowAll{}, nil)
	go h.Run()

	receiver := newTestClient(h, "local:0bee01")
	sender := newTestClient(h, "local:5e4de1")
	h.register <- receiver
	h.register <- sender

	h.handleSubscribe(receiver, "room/public/room1/+")
	// Sender tries to impersonate another identity.
	h.handlePublish(sender, "room/public/room1/local:0bee01", json.RawMessage(`{}`))

	select {
	case data := <-receiver.send:
		t.Fatalf("unexpected delivery: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubRejectsUnauthorizedSubscribe(t *testing.T) {
	h := NewHub(denyAll{}, nil)
	go h.Run()

	c := newTestClient(h, "local:abc")
	h.register <- c
	h.handleSubscribe(c, "room/public/room1/+")

	if c.subscribedTo("room/public/room1/local:feed") {
		t.Error("subscription must be rejected without grants")
	}
}

func TestHubRejectsMalformedSubscription(t *testing.T) {
	h := NewHub(allowAll{}, nil)
	go h.Run()

	c := newTestClient(h, "local:abc")
	h.register <- c
	h.handleSubscribe(c, "room/public/room1") // missing /+ suffix

	if c.subscribedTo("room/public/room1/local:feed") {
		t.Error("malformed subscription must be rejected")
	}
}
