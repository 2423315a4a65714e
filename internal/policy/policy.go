// Package policy names the messaging authorization grants a client acquires
// before using the broker.
package policy

// Policy identifies one grant.
type Policy string

const (
	// Connect allows opening a broker connection.
	Connect Policy = "connect"
	// PublicPublish allows publishing to public rooms on the caller's own
	// delivery topic.
	PublicPublish Policy = "public-publish"
	// PublicSubscribe allows subscribing to public room wildcard topics.
	PublicSubscribe Policy = "public-subscribe"
	// PublicReceive allows receiving messages from public rooms.
	PublicReceive Policy = "public-receive"
)

// All lists every grant, in the order clients acquire them.
var All = []Policy{Connect, PublicPublish, PublicSubscribe, PublicReceive}

// Valid reports whether p names a known grant.
func Valid(p Policy) bool {
	for _, known := range All {
		if p == known {
			return true
		}
	}
	return false
}
