package models

// Chat is a chat room record in the directory. Name is the full room
// identifier ("room/<type>/<name>") and acts as the primary key. Admin and
// Type never change after creation.
type Chat struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Admin     string `json:"admin"`
	CreatedAt int64  `json:"createdAt"` // epoch millis, set server-side
}
