// Package state holds the client-side state machine: a composed state
// struct of independent regions, one pure reducer per region, and a Store
// that applies dispatched events one at a time.
package state

import (
	"sync"

	"github.com/iotchat/iotchat/internal/models"
)

// State composes the independent regions of client session state.
type State struct {
	Auth AuthState
	IoT  IoTState
	Chat ChatState
	// Messages maps room identifier to the ordered, append-only list of
	// messages received for that room.
	Messages map[string][]models.Message
	// Unreads maps room identifier to its unread counter.
	Unreads map[string]int
	// Users caches directory user records by identity id.
	Users map[string]models.User
}

// Initial returns the state before any event has been applied.
func Initial() State {
	return State{
		Auth:     initialAuth,
		IoT:      initialIoT,
		Chat:     initialChat,
		Messages: map[string][]models.Message{},
		Unreads:  map[string]int{},
		Users:    map[string]models.User{},
	}
}

// Reduce applies one event and returns the next state. Reduce never mutates
// its input: slices and maps are copied on write, so snapshots taken from a
// Store stay stable.
func Reduce(s State, e Event) State {
	next := s
	next.Auth = reduceAuth(s.Auth, e)
	next.IoT = reduceIoT(s.IoT, e)
	next.Chat = reduceChat(s.Chat, e)
	next.Messages = reduceMessages(s.Messages, e)
	next.Unreads = reduceUnreads(s.Unreads, e)
	next.Users = reduceUsers(s.Users, e)
	return next
}

// Store serializes event application. Dispatch is synchronous; no two
// reducer applications race.
type Store struct {
	mu    sync.Mutex
	state State
}

func NewStore() *Store {
	return &Store{state: Initial()}
}

// Dispatch applies e to the current state.
func (s *Store) Dispatch(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, e)
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func cloneMessages(m map[string][]models.Message) map[string][]models.Message {
	out := make(map[string][]models.Message, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneUsers(m map[string]models.User) map[string]models.User {
	out := make(map[string]models.User, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
