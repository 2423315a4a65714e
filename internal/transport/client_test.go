package transport

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iotchat/iotchat/internal/auth"
	"github.com/iotchat/iotchat/internal/broker"
	"github.com/iotchat/iotchat/internal/policy"
)

type allowAll struct{}

func (allowAll) Has(context.Context, string, policy.Policy) (bool, error) { return true, nil }

const testSecret = "test-secret"

func startBroker(t *testing.T) string {
	t.Helper()
	hub := broker.NewHub(allowAll{}, nil)
	go hub.Run()
	server := httptest.NewServer(broker.ServeWS(hub, testSecret))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestClientLifecycle(t *testing.T) {
	url := startBroker(t)
	token, err := auth.GenerateToken("local:abc", "bob", testSecret)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}

	c := New(url, Credentials{Token: token})
	if c.Status() != StatusAbsent {
		t.Fatalf("new handle status = %v, want absent", c.Status())
	}

	connected := make(chan struct{})
	c.OnConnect(func() { close(connected) })

	if err := c.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	select {
	case <-connected:
	case <-time.After(time.Second):
		t.Fatal("connect callback not invoked")
	}
	if c.Status() != StatusConnected {
		t.Fatalf("status = %v, want connected", c.Status())
	}

	// Credentials update keeps the live connection.
	c.UpdateCredentials(Credentials{Token: "refreshed"})
	if c.Status() != StatusConnected {
		t.Error("UpdateCredentials must not reconnect")
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if c.Status() != StatusClosed {
		t.Fatalf("status after close = %v, want closed", c.Status())
	}
	if err := c.Publish("room/public/room1/local:abc", []byte(`{}`)); err != ErrNotConnected {
		t.Errorf("Publish after close = %v, want ErrNotConnected", err)
	}
	if err := c.Connect(); err != ErrClosed {
		t.Errorf("Connect after close = %v, want ErrClosed", err)
	}
}

func TestClientPublishSubscribeRoundTrip(t *testing.T) {
	url := startBroker(t)
	token, err := auth.GenerateToken("local:abc", "bob", testSecret)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}

	c := New(url, Credentials{Token: token})
	defer c.Close()

	type received struct {
		topic   string
		payload []byte
	}
	deliveries := make(chan received, 1)
	c.OnMessage(func(topic string, payload []byte) {
		deliveries <- received{topic, payload}
	})

	if err := c.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.Subscribe("room/public/room1/+"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	payload, _ := json.Marshal(map[string]string{"message": "hello"})
	if err := c.Publish("room/public/room1/local:abc", payload); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case d := <-deliveries:
		if d.topic != "room/public/room1/local:abc" {
			t.Errorf("topic = %q", d.topic)
		}
		var body map[string]string
		json.Unmarshal(d.payload, &body)
		if body["message"] != "hello" {
			t.Errorf("payload = %s", d.payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}
