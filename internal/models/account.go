package models

import "time"

// Account is a login credential record for the local identity provider.
// It is separate from the directory User record: an account is created at
// registration, the user record on first login.
type Account struct {
	IdentityID string    `json:"identityId"`
	Username   string    `json:"username"`
	Email      string    `json:"email,omitempty"`
	Password   string    `json:"-"` // bcrypt hash
	CreatedAt  time.Time `json:"created_at"`
}
