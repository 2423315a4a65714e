package state

import (
	"github.com/iotchat/iotchat/internal/models"
	"github.com/iotchat/iotchat/internal/policy"
)

// Event is a tagged record describing one state transition. Events are
// dispatched through a Store and applied by pure per-region reducers.
type Event interface{ event() }

// Auth form fields addressable by AuthFormUpdated.
const (
	FieldUsername = "username"
	FieldPassword = "password"
	FieldEmail    = "email"
)

type (
	// LoginStarted marks the beginning of an authentication attempt.
	LoginStarted struct{}
	// LoginSucceeded carries the authenticated user.
	LoginSucceeded struct{ User models.User }
	// LoginFailed carries the failure message. Only the password form field
	// is cleared; the username is preserved for retry.
	LoginFailed struct{ Error string }
	// LoggedInStatusChanged tracks the persisted logged-in flag.
	LoggedInStatusChanged struct{ LoggedIn bool }

	RegisterStarted   struct{}
	RegisterSucceeded struct{ Username string }
	RegisterFailed    struct{ Error string }

	// AuthFormUpdated updates a single auth form field.
	AuthFormUpdated struct{ Field, Value string }

	// IdentityUpdated records the identity id issued for this session.
	IdentityUpdated struct{ IdentityID string }

	// Logout resets the auth and chat regions. The IoT region keeps its
	// device connection and message handler flags: the underlying broker
	// connection is not torn down on logout.
	Logout struct{}
)

type (
	// PolicyAttached marks one messaging grant as acquired. Grant flags only
	// ever transition false to true.
	PolicyAttached struct{ Policy policy.Policy }
	// DeviceConnectedChanged tracks the broker connection status.
	DeviceConnectedChanged struct{ Connected bool }
	// MessageHandlerAttached tracks whether the delivery handler is bound.
	MessageHandlerAttached struct{ Attached bool }
)

type (
	// MessageDraftChanged updates the message being composed.
	MessageDraftChanged struct{ Text string }
	// SubscribedTopicAdded records a broker subscription. Adding a topic
	// already present is a no-op.
	SubscribedTopicAdded struct{ Topic string }
	// SubscribedTopicsCleared drops all recorded subscriptions.
	SubscribedTopicsCleared struct{}

	ChatsFetching struct{}
	ChatsReceived struct{ Chats []models.Chat }
	ChatCreating  struct{}
	ChatAdded     struct{ Chat models.Chat }
	ChatFailed    struct{ Error string }
)

type (
	// UserFetching marks a directory lookup for an unseen sender in flight.
	UserFetching struct{}
	// UserLearned populates the user cache for an identity.
	UserLearned struct {
		IdentityID string
		User       models.User
	}
)

type (
	// MessageReceived appends a message to its room and bumps the room's
	// unread counter.
	MessageReceived struct{ Message models.Message }
	// UnreadsReset zeroes a room's unread counter.
	UnreadsReset struct{ Room string }
)

func (LoginStarted) event()            {}
func (LoginSucceeded) event()          {}
func (LoginFailed) event()             {}
func (LoggedInStatusChanged) event()   {}
func (RegisterStarted) event()         {}
func (RegisterSucceeded) event()       {}
func (RegisterFailed) event()          {}
func (AuthFormUpdated) event()         {}
func (IdentityUpdated) event()         {}
func (Logout) event()                  {}
func (PolicyAttached) event()          {}
func (DeviceConnectedChanged) event()  {}
func (MessageHandlerAttached) event()  {}
func (MessageDraftChanged) event()     {}
func (SubscribedTopicAdded) event()    {}
func (SubscribedTopicsCleared) event() {}
func (ChatsFetching) event()           {}
func (ChatsReceived) event()           {}
func (ChatCreating) event()            {}
func (ChatAdded) event()               {}
func (ChatFailed) event()              {}
func (UserFetching) event()            {}
func (UserLearned) event()             {}
func (MessageReceived) event()         {}
func (UnreadsReset) event()            {}
