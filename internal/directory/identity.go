package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iotchat/iotchat/internal/auth"
	"github.com/iotchat/iotchat/internal/models"
	"github.com/iotchat/iotchat/internal/transport"
)

// ErrFederationUnsupported is returned by the local identity provider for
// federated sign-in attempts.
var ErrFederationUnsupported = errors.New("directory: federated sign-in not supported by the local identity provider")

// IdentityClient authenticates against the directory's local identity
// provider and holds the resulting session token.
type IdentityClient struct {
	baseURL string
	http    *http.Client

	mu         sync.Mutex
	token      string
	identityID string
	expiresAt  time.Time
}

func NewIdentityClient(baseURL string) *IdentityClient {
	return &IdentityClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Token returns the current session token, or "" when signed out. Pass
// this method to New so directory calls authenticate as the session.
func (c *IdentityClient) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *IdentityClient) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("directory: encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("directory: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("directory: POST %s: %w", path, err)
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

type sessionResponse struct {
	Token string         `json:"token"`
	User  models.Account `json:"user"`
}

// Authenticate signs in with username and password and stores the session
// token on the client.
func (c *IdentityClient) Authenticate(ctx context.Context, username, password string) (models.User, transport.Credentials, error) {
	var session sessionResponse
	body := map[string]string{"username": username, "password": password}
	if err := c.post(ctx, "/auth/login", body, &session); err != nil {
		return models.User{}, transport.Credentials{}, err
	}
	c.storeSession(session)
	user := models.User{
		IdentityID: session.User.IdentityID,
		Username:   session.User.Username,
		CreatedAt:  session.User.CreatedAt.UnixMilli(),
	}
	return user, transport.Credentials{Token: session.Token}, nil
}

// FederatedCredentials is unsupported by the local provider.
func (c *IdentityClient) FederatedCredentials(context.Context, string, string, map[string]string) (models.User, transport.Credentials, error) {
	return models.User{}, transport.Credentials{}, ErrFederationUnsupported
}

// Register creates an account. The caller signs in separately afterwards.
func (c *IdentityClient) Register(ctx context.Context, username, password, email string) error {
	body := map[string]string{"username": username, "password": password, "email": email}
	return c.post(ctx, "/auth/register", body, nil)
}

func (c *IdentityClient) CurrentIdentityID(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identityID == "" {
		return "", errors.New("directory: not signed in")
	}
	return c.identityID, nil
}

// IsSessionValid reports whether a session token is held and not expired.
func (c *IdentityClient) IsSessionValid(context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token != "" && time.Now().Before(c.expiresAt)
}

func (c *IdentityClient) SignOut(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.identityID = ""
	c.expiresAt = time.Time{}
	return nil
}

func (c *IdentityClient) storeSession(session sessionResponse) {
	expiresAt := time.Now().Add(time.Minute)
	// The expiry is read from the token without verifying the signature;
	// the server verifies on every request.
	var claims auth.Claims
	if _, _, err := jwt.NewParser().ParseUnverified(session.Token, &claims); err == nil && claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = session.Token
	c.identityID = session.User.IdentityID
	c.expiresAt = expiresAt
}
