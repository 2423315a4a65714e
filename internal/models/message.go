package models

import "time"

// Message is a chat message as held in client session state. Messages are
// never persisted server-side; ordering is receipt order.
type Message struct {
	ID     string    `json:"id"`
	Room   string    `json:"room"`
	Author string    `json:"author"`
	Time   time.Time `json:"time"`
	Text   string    `json:"text"`
}
