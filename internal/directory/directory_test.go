package directory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/iotchat/iotchat/internal/auth"
	"github.com/iotchat/iotchat/internal/handlers"
	"github.com/iotchat/iotchat/internal/models"
	"github.com/iotchat/iotchat/internal/policy"
	"github.com/iotchat/iotchat/internal/store/memstore"
)

const testSecret = "test-secret"

type memGrants struct {
	granted map[string]map[policy.Policy]bool
}

func (g *memGrants) Grant(_ context.Context, identityID string, p policy.Policy) (bool, error) {
	if g.granted == nil {
		g.granted = map[string]map[policy.Policy]bool{}
	}
	if g.granted[identityID] == nil {
		g.granted[identityID] = map[policy.Policy]bool{}
	}
	already := g.granted[identityID][p]
	g.granted[identityID][p] = true
	return already, nil
}

func newTestAPI(t *testing.T) (*Client, *memstore.Store, *memGrants) {
	t.Helper()
	st := memstore.New()
	grants := &memGrants{}

	r := mux.NewRouter()
	r.Use(auth.JWTMiddleware(testSecret))
	r.HandleFunc("/users", handlers.CreateUser(st)).Methods(http.MethodPost)
	r.HandleFunc("/users/{identityId}", handlers.GetUser(st)).Methods(http.MethodGet)
	r.HandleFunc("/chats", handlers.ListChats(st)).Methods(http.MethodGet)
	r.HandleFunc("/chats", handlers.CreateChat(st)).Methods(http.MethodPost)
	for _, p := range policy.All {
		r.HandleFunc("/policy/"+string(p), handlers.AttachPolicy(grants, p)).Methods(http.MethodPost)
	}

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	token, err := auth.GenerateToken("local:abc", "bob", testSecret)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}
	return New(server.URL, func() string { return token }), st, grants
}

func TestFetchUserNotFound(t *testing.T) {
	client, _, _ := newTestAPI(t)

	user, err := client.FetchUser(context.Background(), "local:nobody")
	if err != nil {
		t.Fatalf("FetchUser: %v", err)
	}
	if user != nil {
		t.Errorf("user = %+v, want nil for an absent record", user)
	}
}

func TestCreateThenFetchUser(t *testing.T) {
	client, _, _ := newTestAPI(t)

	created, err := client.CreateUser(context.Background(), models.User{
		IdentityID: "local:abc",
		Username:   "bob",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if created.IdentityID != "local:abc" || created.Username != "bob" {
		t.Errorf("created = %+v", created)
	}

	fetched, err := client.FetchUser(context.Background(), "local:abc")
	if err != nil {
		t.Fatalf("FetchUser: %v", err)
	}
	if fetched == nil || fetched.Username != "bob" {
		t.Errorf("fetched = %+v", fetched)
	}
}

func TestCreateChatAndList(t *testing.T) {
	client, _, _ := newTestAPI(t)

	chat, err := client.CreateChat(context.Background(), "room/public/room1", "public")
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	if chat.Name != "room/public/room1" || chat.Admin != "local:abc" {
		t.Errorf("chat = %+v", chat)
	}

	chats, err := client.FetchAllChats(context.Background())
	if err != nil {
		t.Fatalf("FetchAllChats: %v", err)
	}
	if len(chats) != 1 || chats[0].Name != "room/public/room1" {
		t.Errorf("chats = %+v", chats)
	}
}

func TestCreateChatValidationError(t *testing.T) {
	client, st, _ := newTestAPI(t)

	_, err := client.CreateChat(context.Background(), "room/public/has/slash", "public")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %T, want *APIError", err)
	}
	if apiErr.Message != handlers.InvalidPublicRoom {
		t.Errorf("message = %q", apiErr.Message)
	}
	chats, _ := st.ListChats()
	if len(chats) != 0 {
		t.Error("invalid chat must not be stored")
	}
}

func TestCreateChatDuplicate(t *testing.T) {
	client, _, _ := newTestAPI(t)

	if _, err := client.CreateChat(context.Background(), "room/public/room1", "public"); err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	_, err := client.CreateChat(context.Background(), "room/public/room1", "public")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if err.Error() != handlers.ChatAlreadyExists {
		t.Errorf("message = %q", err.Error())
	}
}

func TestAttachPolicyIdempotent(t *testing.T) {
	client, _, grants := newTestAPI(t)

	if err := client.AttachPolicy(context.Background(), policy.Connect); err != nil {
		t.Fatalf("AttachPolicy: %v", err)
	}
	if err := client.AttachPolicy(context.Background(), policy.Connect); err != nil {
		t.Fatalf("repeated AttachPolicy: %v", err)
	}
	if !grants.granted["local:abc"][policy.Connect] {
		t.Error("grant must be recorded")
	}
}

func TestUnauthorizedRequest(t *testing.T) {
	client, _, _ := newTestAPI(t)
	client.token = func() string { return "" }

	_, err := client.FetchAllChats(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("err = %v, want a 401 APIError", err)
	}
}
