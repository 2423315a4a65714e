package broker

import "strings"

// Matches reports whether a subscription pattern matches a delivery topic.
// A pattern is either an exact topic or ends in "/+", where "+" stands for
// exactly one trailing segment.
func Matches(pattern, topic string) bool {
	if pattern == topic {
		return true
	}
	if !strings.HasSuffix(pattern, "/+") {
		return false
	}
	prefix := pattern[:len(pattern)-1] // keep the trailing slash
	if !strings.HasPrefix(topic, prefix) {
		return false
	}
	rest := topic[len(prefix):]
	return rest != "" && !strings.Contains(rest, "/")
}
