// Package memstore is an in-memory store.Store used by tests and local
// development.
package memstore

import (
	"sort"
	"sync"

	"github.com/iotchat/iotchat/internal/models"
	"github.com/iotchat/iotchat/internal/store"
)

type Store struct {
	mu       sync.RWMutex
	accounts map[string]models.Account // by username
	users    map[string]models.User    // by identity id
	chats    map[string]models.Chat    // by room identifier
}

func New() *Store {
	return &Store{
		accounts: make(map[string]models.Account),
		users:    make(map[string]models.User),
		chats:    make(map[string]models.Chat),
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) CreateAccount(a models.Account) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.Username]; ok {
		return models.Account{}, store.ErrConflict
	}
	for _, existing := range s.accounts {
		if a.Email != "" && existing.Email == a.Email {
			return models.Account{}, store.ErrConflict
		}
	}
	s.accounts[a.Username] = a
	return a, nil
}

func (s *Store) GetAccountByUsername(username string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[username]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *Store) PutUser(u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.IdentityID] = u
	return u, nil
}

func (s *Store) GetUser(identityID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[identityID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *Store) CreateChat(c models.Chat) (models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[c.Name]; ok {
		return models.Chat{}, store.ErrConflict
	}
	s.chats[c.Name] = c
	return c, nil
}

func (s *Store) GetChat(name string) (*models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats[name]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *Store) ListChats() ([]models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chats := make([]models.Chat, 0, len(s.chats))
	for _, c := range s.chats {
		chats = append(chats, c)
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i].Name < chats[j].Name })
	return chats, nil
}
