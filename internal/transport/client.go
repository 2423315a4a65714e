// Package transport is the client-side broker connection: an explicitly
// owned handle with an observable lifecycle. A handle is created absent,
// dialed once, and closed once; replacing a connection means closing the
// old handle and constructing a new one. Credential updates apply to the
// existing handle without reconnecting.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iotchat/iotchat/internal/broker"
)

// Status is the lifecycle state of a Client.
type Status int

const (
	StatusAbsent Status = iota
	StatusConnecting
	StatusConnected
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusClosed:
		return "closed"
	}
	return "unknown"
}

// Credentials authenticate the connection to the broker.
type Credentials struct {
	Token string
}

var (
	ErrNotConnected = errors.New("transport: not connected")
	ErrClosed       = errors.New("transport: closed")
)

const writeWait = 10 * time.Second

// Client is one broker connection handle.
type Client struct {
	brokerURL string

	mu     sync.Mutex
	status Status
	creds  Credentials
	conn   *websocket.Conn

	onMessage func(topic string, payload []byte)
	onConnect func()
	onClose   func(err error)
}

// New returns a handle in the absent state.
func New(brokerURL string, creds Credentials) *Client {
	return &Client{brokerURL: brokerURL, creds: creds, status: StatusAbsent}
}

func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// UpdateCredentials replaces the handle's credentials in place. The live
// connection is kept; the new credentials take effect on the next dial.
func (c *Client) UpdateCredentials(creds Credentials) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = creds
}

// OnMessage registers the delivery handler. Deliveries arriving while no
// handler is registered are dropped.
func (c *Client) OnMessage(fn func(topic string, payload []byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = fn
}

func (c *Client) OnConnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnect = fn
}

func (c *Client) OnClose(fn func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClose = fn
}

// Connect dials the broker. Valid only from the absent state.
func (c *Client) Connect() error {
	c.mu.Lock()
	switch c.status {
	case StatusClosed:
		c.mu.Unlock()
		return ErrClosed
	case StatusConnecting, StatusConnected:
		c.mu.Unlock()
		return fmt.Errorf("transport: already %s", c.status)
	}
	c.status = StatusConnecting
	dialURL := c.brokerURL + "?token=" + url.QueryEscape(c.creds.Token)
	c.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.Dial(dialURL, nil)
	if err != nil {
		c.mu.Lock()
		c.status = StatusAbsent
		c.mu.Unlock()
		return fmt.Errorf("transport: dial: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.status = StatusConnected
	onConnect := c.onConnect
	c.mu.Unlock()

	if onConnect != nil {
		onConnect()
	}
	go c.readLoop(conn)
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	var readErr error
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			readErr = err
			break
		}
		var d broker.Delivery
		if err := json.Unmarshal(data, &d); err != nil {
			slog.Debug("dropping malformed delivery", "error", err)
			continue
		}
		c.mu.Lock()
		onMessage := c.onMessage
		c.mu.Unlock()
		if onMessage != nil {
			onMessage(d.Topic, d.Payload)
		}
	}

	c.mu.Lock()
	alreadyClosed := c.status == StatusClosed
	c.status = StatusClosed
	onClose := c.onClose
	c.mu.Unlock()

	if !alreadyClosed && onClose != nil {
		onClose(readErr)
	}
}

func (c *Client) send(frame broker.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusConnected {
		return ErrNotConnected
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(frame)
}

// Publish sends a JSON payload on a delivery topic.
func (c *Client) Publish(topic string, payload []byte) error {
	return c.send(broker.Frame{Action: broker.ActionPublish, Topic: topic, Payload: payload})
}

// Subscribe asks the broker for deliveries matching topic.
func (c *Client) Subscribe(topic string) error {
	return c.send(broker.Frame{Action: broker.ActionSubscribe, Topic: topic})
}

// Unsubscribe stops deliveries for topic.
func (c *Client) Unsubscribe(topic string) error {
	return c.send(broker.Frame{Action: broker.ActionUnsubscribe, Topic: topic})
}

// Close tears the connection down. The handle cannot be reused.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.status = StatusClosed
	c.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}
