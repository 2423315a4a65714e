// Package store defines the directory's storage interface.
package store

import (
	"errors"

	"github.com/iotchat/iotchat/internal/models"
)

// ErrConflict is returned when a write would violate a uniqueness rule,
// such as creating a chat whose name is already taken.
var ErrConflict = errors.New("record already exists")

// Store is the persistence boundary of the directory API. Lookups return
// (nil, nil) when the record is absent.
type Store interface {
	// CreateAccount stores login credentials. Duplicate usernames or emails
	// fail with ErrConflict.
	CreateAccount(a models.Account) (models.Account, error)
	GetAccountByUsername(username string) (*models.Account, error)

	// PutUser writes a directory user record with last-write-wins
	// semantics and returns the stored record.
	PutUser(u models.User) (models.User, error)
	GetUser(identityID string) (*models.User, error)

	// CreateChat stores a chat record. An existing name fails with
	// ErrConflict.
	CreateChat(c models.Chat) (models.Chat, error)
	GetChat(name string) (*models.Chat, error)
	ListChats() ([]models.Chat, error)
}
