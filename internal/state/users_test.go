package state

import (
	"testing"

	"github.com/iotchat/iotchat/internal/models"
)

func TestUsersLearned(t *testing.T) {
	s := Reduce(Initial(), UserLearned{
		IdentityID: "local:abc",
		User:       models.User{IdentityID: "local:abc", Username: "bob"},
	})
	got, ok := s.Users["local:abc"]
	if !ok || got.Username != "bob" {
		t.Errorf("Users[local:abc] = %+v, ok = %v", got, ok)
	}
}

func TestUsersLearnedOverwrites(t *testing.T) {
	s := Initial()
	s = Reduce(s, UserLearned{IdentityID: "local:abc", User: models.User{Username: "bob"}})
	s = Reduce(s, UserLearned{IdentityID: "local:abc", User: models.User{Username: "bobby"}})
	if s.Users["local:abc"].Username != "bobby" {
		t.Errorf("Users[local:abc] = %+v, want last write", s.Users["local:abc"])
	}
}
