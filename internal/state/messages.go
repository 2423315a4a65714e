package state

import "github.com/iotchat/iotchat/internal/models"

// reduceMessages keeps the per-room message lists. Appends only; the
// reducer never reorders or deduplicates.
func reduceMessages(s map[string][]models.Message, e Event) map[string][]models.Message {
	m, ok := e.(MessageReceived)
	if !ok {
		return s
	}
	next := cloneMessages(s)
	existing := next[m.Message.Room]
	room := make([]models.Message, len(existing), len(existing)+1)
	copy(room, existing)
	next[m.Message.Room] = append(room, m.Message)
	return next
}
