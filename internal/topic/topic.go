// Package topic implements the room and topic naming scheme shared by the
// directory API, the broker and the client session.
//
// Three shapes exist:
//
//	room/<type>/<name>                room identifier
//	room/<type>/<name>/+              subscription topic (all senders)
//	room/<type>/<name>/<identityId>   delivery topic (one sender)
package topic

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	TypePublic  = "public"
	TypePrivate = "private"
)

// ErrInvalidTopic is wrapped by every validation failure in this package.
var ErrInvalidTopic = errors.New("invalid topic")

var (
	roomRe         = regexp.MustCompile(`^room/(public|private)/[a-zA-Z0-9-]+$`)
	deliveryRe     = regexp.MustCompile(`^room/(public|private)/[a-zA-Z0-9-]+/[\w-]+:[0-9a-f-]+$`)
	subscriptionRe = regexp.MustCompile(`^room/(public|private)/[a-zA-Z0-9-]+/\+$`)
	nameRe         = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)
)

// Error reports a malformed topic together with the shape that was expected.
type Error struct {
	Topic string
	Want  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid topic %q: expected %s", e.Topic, e.Want)
}

func (e *Error) Unwrap() error { return ErrInvalidTopic }

// ValidType reports whether roomType is one of the supported room types.
func ValidType(roomType string) bool {
	return roomType == TypePublic || roomType == TypePrivate
}

// Format builds the room identifier for a room type and name.
func Format(roomType, name string) (string, error) {
	if !ValidType(roomType) {
		return "", &Error{Topic: roomType, Want: `room type "public" or "private"`}
	}
	if !nameRe.MatchString(name) {
		return "", &Error{Topic: name, Want: "room name matching [a-zA-Z0-9-]+"}
	}
	return "room/" + roomType + "/" + name, nil
}

// ValidRoom reports whether room is a well-formed room identifier.
func ValidRoom(room string) bool {
	return roomRe.MatchString(room)
}

// ValidRoomOfType reports whether room is a well-formed room identifier of
// the given type. A name containing an extra "/" segment fails.
func ValidRoomOfType(room, roomType string) bool {
	return ValidType(roomType) && roomRe.MatchString(room) &&
		strings.HasPrefix(room, "room/"+roomType+"/")
}

// ParseDelivery splits a delivery topic into its room identifier and the
// sender's identity id. The split point is the last "/".
func ParseDelivery(topic string) (room, identityID string, err error) {
	if !deliveryRe.MatchString(topic) {
		return "", "", &Error{Topic: topic, Want: "room/<type>/<name>/<identityId>"}
	}
	i := strings.LastIndex(topic, "/")
	return topic[:i], topic[i+1:], nil
}

// Delivery builds the delivery topic a sender publishes on.
func Delivery(room, identityID string) string {
	return room + "/" + identityID
}

// Subscription builds the wildcard topic matching all senders in a room.
func Subscription(room string) string {
	return room + "/+"
}

// RoomFromSubscription strips the trailing "/+" from a subscription topic.
func RoomFromSubscription(topic string) (string, error) {
	if !subscriptionRe.MatchString(topic) {
		return "", &Error{Topic: topic, Want: "room/<type>/<name>/+"}
	}
	return strings.TrimSuffix(topic, "/+"), nil
}

// DisplayTitle renders a room identifier as a human readable title:
// "room/public/my-awesome-room" becomes "My Awesome Room".
func DisplayTitle(room string) string {
	name := room[strings.LastIndex(room, "/")+1:]
	words := strings.Split(name, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
