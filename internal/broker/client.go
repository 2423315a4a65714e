package broker

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iotchat/iotchat/internal/auth"
	"github.com/iotchat/iotchat/internal/policy"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	hub        *Hub
	conn       *websocket.Conn
	identityID string

	mu            sync.Mutex
	subscriptions map[string]bool

	send chan []byte
}

func (c *client) addSubscription(pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[pattern] = true
}

func (c *client) removeSubscription(pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscriptions, pattern)
}

func (c *client) subscribedTo(topicName string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for pattern := range c.subscriptions {
		if Matches(pattern, topicName) {
			return true
		}
	}
	return false
}

// ServeWS upgrades a broker connection. The caller authenticates with a
// session token and must hold the connect grant.
func ServeWS(hub *Hub, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		claims, err := auth.ValidateToken(token, jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ok, err := hub.auth.Has(r.Context(), claims.IdentityID, policy.Connect)
		if err != nil {
			slog.Error("failed to check connect policy", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "connect policy not attached", http.StatusForbidden)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", "error", err)
			return
		}

		c := &client{
			hub:           hub,
			conn:          conn,
			identityID:    claims.IdentityID,
			subscriptions: make(map[string]bool),
			send:          make(chan []byte, 256),
		}

		hub.register <- c
		go c.writePump()
		go c.readPump()
	}
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("broker read error", "error", err, "identity_id", c.identityID)
			}
			break
		}

		var frame Frame
		if err := json.Unmarshal(message, &frame); err != nil {
			continue
		}

		switch frame.Action {
		case ActionPublish:
			c.hub.handlePublish(c, frame.Topic, frame.Payload)
		case ActionSubscribe:
			c.hub.handleSubscribe(c, frame.Topic)
		case ActionUnsubscribe:
			c.hub.handleUnsubscribe(c, frame.Topic)
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
