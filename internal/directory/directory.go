// Package directory is the HTTP client for the chat directory API. It
// speaks the API's envelope: successful responses carry the record or list
// directly, failures carry {"status": false, "error": "..."}.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/iotchat/iotchat/internal/models"
	"github.com/iotchat/iotchat/internal/policy"
)

var (
	ErrValidation = errors.New("directory: validation failed")
	ErrNotFound   = errors.New("directory: not found")
	ErrConflict   = errors.New("directory: conflict")
	ErrUpstream   = errors.New("directory: upstream error")
)

// APIError is a non-2xx response from the directory. Error renders the
// server's message so it can surface in the chat region unchanged.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return ErrValidation
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	default:
		return ErrUpstream
	}
}

// Client calls the directory API with a bearer token supplied per request.
type Client struct {
	baseURL string
	token   func() string
	http    *http.Client
}

// New returns a client for the API at baseURL. token is called before each
// request so a refreshed session token is picked up automatically.
func New(baseURL string, token func() string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("directory: encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("directory: building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("directory: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var envelope struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error == "" {
			envelope.Error = resp.Status
		}
		return &APIError{StatusCode: resp.StatusCode, Message: envelope.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("directory: decoding response: %w", err)
	}
	return nil
}

// FetchUser looks up a user record by identity id.
func (c *Client) FetchUser(ctx context.Context, identityID string) (*models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(identityID), nil, &user)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser upserts a user record. The server keeps the latest write.
func (c *Client) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	var created models.User
	if err := c.do(ctx, http.MethodPost, "/users", user, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// FetchAllChats lists every chat room.
func (c *Client) FetchAllChats(ctx context.Context) ([]models.Chat, error) {
	var chats []models.Chat
	if err := c.do(ctx, http.MethodGet, "/chats", nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// CreateChat creates a chat room. room is the full room identifier.
func (c *Client) CreateChat(ctx context.Context, room, roomType string) (*models.Chat, error) {
	body := map[string]string{"roomName": room, "type": roomType}
	var chat models.Chat
	if err := c.do(ctx, http.MethodPost, "/chats", body, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// AttachPolicy attaches a messaging grant to the caller's identity. A grant
// that is already attached counts as attached.
func (c *Client) AttachPolicy(ctx context.Context, p policy.Policy) error {
	err := c.do(ctx, http.MethodPost, "/policy/"+string(p), nil, nil)
	if errors.Is(err, ErrConflict) {
		return nil
	}
	return err
}
