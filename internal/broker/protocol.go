// Package broker is the server side of the messaging transport: clients
// connect over a websocket, subscribe to room wildcard topics and publish
// on their own delivery topics. Authorization follows the attached
// messaging policies.
package broker

import "encoding/json"

const (
	ActionPublish     = "publish"
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// Frame is a client request: publish, subscribe or unsubscribe.
type Frame struct {
	Action  string          `json:"action"`
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Delivery is a message pushed to a subscribed client.
type Delivery struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

func encodeDelivery(topic string, payload json.RawMessage) ([]byte, error) {
	return json.Marshal(Delivery{Topic: topic, Payload: payload})
}
