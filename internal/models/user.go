package models

// User is a user record in the directory, keyed by the identity id issued
// by the identity provider.
type User struct {
	IdentityID string `json:"identityId"`
	Username   string `json:"username"`
	CreatedAt  int64  `json:"createdAt"` // epoch millis
}
