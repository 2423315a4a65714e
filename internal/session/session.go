// Package session is the client action layer. A Session binds an identity
// provider, the directory API and a broker transport to the state store:
// every operation talks to its collaborators and dispatches the events
// that move the state machine.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iotchat/iotchat/internal/models"
	"github.com/iotchat/iotchat/internal/policy"
	"github.com/iotchat/iotchat/internal/state"
	"github.com/iotchat/iotchat/internal/topic"
	"github.com/iotchat/iotchat/internal/transport"
)

// Identity is the authentication provider.
type Identity interface {
	Authenticate(ctx context.Context, username, password string) (models.User, transport.Credentials, error)
	FederatedCredentials(ctx context.Context, token, provider string, profile map[string]string) (models.User, transport.Credentials, error)
	Register(ctx context.Context, username, password, email string) error
	CurrentIdentityID(ctx context.Context) (string, error)
	IsSessionValid(ctx context.Context) bool
	SignOut(ctx context.Context) error
}

// Directory is the chat directory API.
type Directory interface {
	FetchUser(ctx context.Context, identityID string) (*models.User, error)
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	FetchAllChats(ctx context.Context) ([]models.Chat, error)
	CreateChat(ctx context.Context, room, roomType string) (*models.Chat, error)
	AttachPolicy(ctx context.Context, p policy.Policy) error
}

// Transport is the broker connection handle.
type Transport interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string) error
	Unsubscribe(topic string) error
	OnMessage(fn func(topic string, payload []byte))
	OnConnect(fn func())
	OnClose(fn func(err error))
	UpdateCredentials(creds transport.Credentials)
}

var _ Transport = (*transport.Client)(nil)

// ErrNoIdentity is returned by operations that need an authenticated
// identity before one has been established.
var ErrNoIdentity = errors.New("session: no identity")

// Session drives the client state machine.
type Session struct {
	store     *state.Store
	identity  Identity
	directory Directory
	transport Transport

	// pending queues messages per sender while a directory lookup for that
	// sender is in flight. The presence of a key marks the lookup.
	mu      sync.Mutex
	pending map[string][]models.Message

	now   func() time.Time
	newID func() string
}

func New(store *state.Store, identity Identity, directory Directory, tr Transport) *Session {
	return &Session{
		store:     store,
		identity:  identity,
		directory: directory,
		transport: tr,
		pending:   make(map[string][]models.Message),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// State returns a snapshot of the session state.
func (s *Session) State() state.State { return s.store.State() }

// UpdateAuthForm updates one auth form field.
func (s *Session) UpdateAuthForm(field, value string) {
	s.store.Dispatch(state.AuthFormUpdated{Field: field, Value: value})
}

// DraftChanged updates the message being composed.
func (s *Session) DraftChanged(text string) {
	s.store.Dispatch(state.MessageDraftChanged{Text: text})
}

// Login authenticates with the local identity provider.
func (s *Session) Login(ctx context.Context, username, password string) error {
	s.store.Dispatch(state.LoginStarted{})
	user, creds, err := s.identity.Authenticate(ctx, username, password)
	if err != nil {
		s.store.Dispatch(state.LoginFailed{Error: err.Error()})
		return fmt.Errorf("session: login: %w", err)
	}
	return s.completeLogin(ctx, user, creds)
}

// LoginFederated exchanges a federated provider token for session
// credentials and signs in.
func (s *Session) LoginFederated(ctx context.Context, token, provider string, profile map[string]string) error {
	s.store.Dispatch(state.LoginStarted{})
	user, creds, err := s.identity.FederatedCredentials(ctx, token, provider, profile)
	if err != nil {
		s.store.Dispatch(state.LoginFailed{Error: err.Error()})
		return fmt.Errorf("session: federated login: %w", err)
	}
	return s.completeLogin(ctx, user, creds)
}

func (s *Session) completeLogin(ctx context.Context, user models.User, creds transport.Credentials) error {
	s.transport.UpdateCredentials(creds)
	s.store.Dispatch(state.LoginSucceeded{User: user})
	s.store.Dispatch(state.LoggedInStatusChanged{LoggedIn: true})
	s.store.Dispatch(state.IdentityUpdated{IdentityID: user.IdentityID})

	// Make sure the directory has a record for this identity so other
	// participants can resolve it. Last write wins on the directory side.
	created, err := s.directory.CreateUser(ctx, user)
	if err != nil {
		slog.Error("failed to record user in directory", "identity_id", user.IdentityID, "error", err)
		return nil
	}
	s.store.Dispatch(state.UserLearned{IdentityID: created.IdentityID, User: *created})
	return nil
}

// Register creates an account with the local identity provider.
func (s *Session) Register(ctx context.Context, username, password, email string) error {
	s.store.Dispatch(state.RegisterStarted{})
	if err := s.identity.Register(ctx, username, password, email); err != nil {
		s.store.Dispatch(state.RegisterFailed{Error: err.Error()})
		return fmt.Errorf("session: register: %w", err)
	}
	s.store.Dispatch(state.RegisterSucceeded{Username: username})
	return nil
}

// SignOut ends the identity session and resets the auth and chat regions.
// The broker connection itself stays up.
func (s *Session) SignOut(ctx context.Context) error {
	if err := s.identity.SignOut(ctx); err != nil {
		slog.Error("identity sign-out failed", "error", err)
	}
	for _, t := range s.store.State().Chat.SubscribedTopics {
		if err := s.transport.Unsubscribe(t); err != nil {
			slog.Warn("failed to unsubscribe on sign-out", "topic", t, "error", err)
		}
	}
	s.store.Dispatch(state.SubscribedTopicsCleared{})
	s.store.Dispatch(state.MessageHandlerAttached{Attached: false})
	s.store.Dispatch(state.LoggedInStatusChanged{LoggedIn: false})
	s.store.Dispatch(state.Logout{})
	return nil
}

// AcquirePublicPolicies prepares the session for messaging: it records the
// current identity, wires the connection callbacks and attaches every
// public messaging grant not yet held. A grant that is already attached on
// the directory side counts as attached here.
func (s *Session) AcquirePublicPolicies(ctx context.Context, onConnect func(), onClose func(err error)) error {
	if !s.identity.IsSessionValid(ctx) {
		return s.SignOut(ctx)
	}
	identityID, err := s.identity.CurrentIdentityID(ctx)
	if err != nil {
		return fmt.Errorf("session: resolving identity: %w", err)
	}
	s.store.Dispatch(state.IdentityUpdated{IdentityID: identityID})

	s.transport.OnConnect(func() {
		s.store.Dispatch(state.DeviceConnectedChanged{Connected: true})
		if onConnect != nil {
			onConnect()
		}
	})
	s.transport.OnClose(func(err error) {
		s.store.Dispatch(state.DeviceConnectedChanged{Connected: false})
		if onClose != nil {
			onClose(err)
		}
	})

	iot := s.store.State().IoT
	for _, p := range policy.All {
		if iot.PolicyAttached(p) {
			continue
		}
		if err := s.directory.AttachPolicy(ctx, p); err != nil {
			return fmt.Errorf("session: attaching %s policy: %w", p, err)
		}
		s.store.Dispatch(state.PolicyAttached{Policy: p})
	}
	return nil
}

// AttachMessageHandler binds the delivery handler to the transport. Calling
// it again once attached is a no-op.
func (s *Session) AttachMessageHandler() {
	if s.store.State().IoT.MessageHandlerAttached {
		return
	}
	s.transport.OnMessage(s.HandleDelivery)
	s.store.Dispatch(state.MessageHandlerAttached{Attached: true})
}

// HandleDelivery processes one broker delivery. A message from a sender
// already in the user cache is appended immediately. An unknown sender
// triggers a directory lookup first: UserLearned is always dispatched
// before the sender's messages, and messages arriving while the lookup is
// in flight are queued and appended in arrival order. If the lookup fails
// the queued messages are dropped.
func (s *Session) HandleDelivery(topicName string, payload []byte) {
	room, senderID, err := topic.ParseDelivery(topicName)
	if err != nil {
		slog.Debug("dropping delivery on malformed topic", "topic", topicName, "error", err)
		return
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		slog.Debug("dropping malformed delivery payload", "topic", topicName, "error", err)
		return
	}
	msg := models.Message{
		ID:   s.newID(),
		Room: room,
		Time: s.now(),
		Text: body.Message,
	}

	if sender, known := s.store.State().Users[senderID]; known {
		msg.Author = sender.Username
		s.store.Dispatch(state.MessageReceived{Message: msg})
		return
	}

	s.mu.Lock()
	if queue, inFlight := s.pending[senderID]; inFlight {
		s.pending[senderID] = append(queue, msg)
		s.mu.Unlock()
		return
	}
	s.pending[senderID] = []models.Message{msg}
	s.mu.Unlock()

	s.store.Dispatch(state.UserFetching{})
	user, err := s.directory.FetchUser(context.Background(), senderID)

	s.mu.Lock()
	queued := s.pending[senderID]
	delete(s.pending, senderID)
	s.mu.Unlock()

	if err != nil || user == nil {
		slog.Error("dropping messages from unresolvable sender",
			"identity_id", senderID, "dropped", len(queued), "error", err)
		return
	}
	s.store.Dispatch(state.UserLearned{IdentityID: senderID, User: *user})
	for _, m := range queued {
		m.Author = user.Username
		s.store.Dispatch(state.MessageReceived{Message: m})
	}
}

// SubscribeToRoom subscribes the transport to the room's wildcard topic.
// Subscribing to a room already subscribed is a no-op.
func (s *Session) SubscribeToRoom(room string) error {
	sub := topic.Subscription(room)
	if s.store.State().Chat.Subscribed(sub) {
		return nil
	}
	if err := s.transport.Subscribe(sub); err != nil {
		return fmt.Errorf("session: subscribing to %s: %w", room, err)
	}
	s.store.Dispatch(state.SubscribedTopicAdded{Topic: sub})
	return nil
}

// FetchAllChats loads the room list from the directory.
func (s *Session) FetchAllChats(ctx context.Context) error {
	s.store.Dispatch(state.ChatsFetching{})
	chats, err := s.directory.FetchAllChats(ctx)
	if err != nil {
		s.store.Dispatch(state.ChatFailed{Error: err.Error()})
		return fmt.Errorf("session: fetching chats: %w", err)
	}
	s.store.Dispatch(state.ChatsReceived{Chats: chats})
	return nil
}

// CreateChat validates the room name locally and creates the room in the
// directory. A name that fails validation never reaches the directory.
func (s *Session) CreateChat(ctx context.Context, name, roomType string) error {
	s.store.Dispatch(state.ChatCreating{})
	room, err := topic.Format(roomType, name)
	if err != nil {
		s.store.Dispatch(state.ChatFailed{Error: err.Error()})
		return fmt.Errorf("session: creating chat: %w", err)
	}
	chat, err := s.directory.CreateChat(ctx, room, roomType)
	if err != nil {
		s.store.Dispatch(state.ChatFailed{Error: err.Error()})
		return fmt.Errorf("session: creating chat: %w", err)
	}
	s.store.Dispatch(state.ChatAdded{Chat: *chat})
	return nil
}

// ReadChat marks a room as read. A room with no unreads dispatches nothing.
func (s *Session) ReadChat(room string) {
	if s.store.State().Unreads[room] == 0 {
		return
	}
	s.store.Dispatch(state.UnreadsReset{Room: room})
}

// SendMessage publishes text on the delivery topic for the session's own
// identity and clears the draft.
func (s *Session) SendMessage(room, text string) error {
	identityID := s.store.State().Auth.IdentityID
	if identityID == "" {
		return ErrNoIdentity
	}
	payload, err := json.Marshal(map[string]string{"message": text})
	if err != nil {
		return fmt.Errorf("session: encoding message: %w", err)
	}
	if err := s.transport.Publish(topic.Delivery(room, identityID), payload); err != nil {
		return fmt.Errorf("session: publishing message: %w", err)
	}
	s.store.Dispatch(state.MessageDraftChanged{Text: ""})
	return nil
}
