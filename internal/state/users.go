package state

import "github.com/iotchat/iotchat/internal/models"

// reduceUsers keeps the identity id to user record cache, populated lazily
// the first time a message from an unseen identity arrives.
func reduceUsers(s map[string]models.User, e Event) map[string]models.User {
	u, ok := e.(UserLearned)
	if !ok {
		return s
	}
	next := cloneUsers(s)
	next[u.IdentityID] = u.User
	return next
}
