// Package database implements store.Store on PostgreSQL.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/iotchat/iotchat/internal/models"
	"github.com/iotchat/iotchat/internal/store"
)

const uniqueViolation = "23505"

type DB struct {
	db *sql.DB
}

var _ store.Store = (*DB)(nil)

func New(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error { return d.db.Close() }

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// --- Accounts ---

func (d *DB) CreateAccount(a models.Account) (models.Account, error) {
	var out models.Account
	err := d.db.QueryRow(
		`INSERT INTO accounts (identity_id, username, email, password) VALUES ($1, $2, $3, $4)
		 RETURNING identity_id, username, email, password, created_at`,
		a.IdentityID, a.Username, a.Email, a.Password,
	).Scan(&out.IdentityID, &out.Username, &out.Email, &out.Password, &out.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Account{}, store.ErrConflict
		}
		return models.Account{}, fmt.Errorf("failed to create account: %w", err)
	}
	return out, nil
}

func (d *DB) GetAccountByUsername(username string) (*models.Account, error) {
	var a models.Account
	err := d.db.QueryRow(
		`SELECT identity_id, username, email, password, created_at FROM accounts WHERE username = $1`,
		username,
	).Scan(&a.IdentityID, &a.Username, &a.Email, &a.Password, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &a, nil
}

// --- Users ---

func (d *DB) PutUser(u models.User) (models.User, error) {
	var out models.User
	err := d.db.QueryRow(
		`INSERT INTO users (identity_id, username, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (identity_id) DO UPDATE SET username = EXCLUDED.username
		 RETURNING identity_id, username, created_at`,
		u.IdentityID, u.Username, u.CreatedAt,
	).Scan(&out.IdentityID, &out.Username, &out.CreatedAt)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to put user: %w", err)
	}
	return out, nil
}

func (d *DB) GetUser(identityID string) (*models.User, error) {
	var u models.User
	err := d.db.QueryRow(
		`SELECT identity_id, username, created_at FROM users WHERE identity_id = $1`,
		identityID,
	).Scan(&u.IdentityID, &u.Username, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// --- Chats ---

func (d *DB) CreateChat(c models.Chat) (models.Chat, error) {
	var out models.Chat
	err := d.db.QueryRow(
		`INSERT INTO chats (name, type, admin, created_at) VALUES ($1, $2, $3, $4)
		 RETURNING name, type, admin, created_at`,
		c.Name, c.Type, c.Admin, c.CreatedAt,
	).Scan(&out.Name, &out.Type, &out.Admin, &out.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Chat{}, store.ErrConflict
		}
		return models.Chat{}, fmt.Errorf("failed to create chat: %w", err)
	}
	return out, nil
}

func (d *DB) GetChat(name string) (*models.Chat, error) {
	var c models.Chat
	err := d.db.QueryRow(
		`SELECT name, type, admin, created_at FROM chats WHERE name = $1`,
		name,
	).Scan(&c.Name, &c.Type, &c.Admin, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return &c, nil
}

func (d *DB) ListChats() ([]models.Chat, error) {
	rows, err := d.db.Query(`SELECT name, type, admin, created_at FROM chats ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	chats := []models.Chat{}
	for rows.Next() {
		var c models.Chat
		if err := rows.Scan(&c.Name, &c.Type, &c.Admin, &c.CreatedAt); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}
