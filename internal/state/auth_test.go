package state

import (
	"testing"

	"github.com/iotchat/iotchat/internal/models"
)

func TestAuthLoginFlow(t *testing.T) {
	s := Initial()

	s = Reduce(s, AuthFormUpdated{Field: FieldUsername, Value: "bob"})
	s = Reduce(s, AuthFormUpdated{Field: FieldPassword, Value: "hunter2"})
	s = Reduce(s, LoginStarted{})

	if !s.Auth.Loading {
		t.Error("expected Loading after LoginStarted")
	}
	if s.Auth.Error != "" || s.Auth.Notice != "" {
		t.Error("LoginStarted should clear error and notice")
	}

	user := models.User{IdentityID: "local:abc", Username: "bob"}
	s = Reduce(s, LoginSucceeded{User: user})

	if s.Auth.Loading {
		t.Error("LoginSucceeded should stop loading")
	}
	if s.Auth.Username != "" || s.Auth.Password != "" {
		t.Error("LoginSucceeded should reset form fields")
	}
	if s.Auth.User == nil || s.Auth.User.Username != "bob" {
		t.Errorf("User = %+v, want bob", s.Auth.User)
	}
}

func TestAuthLoginFailedClearsOnlyPassword(t *testing.T) {
	s := Initial()
	s = Reduce(s, AuthFormUpdated{Field: FieldUsername, Value: "bob"})
	s = Reduce(s, AuthFormUpdated{Field: FieldPassword, Value: "hunter2"})
	s = Reduce(s, LoginStarted{})
	s = Reduce(s, LoginFailed{Error: "bad credentials"})

	if s.Auth.Username != "bob" {
		t.Errorf("Username = %q, want preserved %q", s.Auth.Username, "bob")
	}
	if s.Auth.Password != "" {
		t.Error("LoginFailed should clear the password")
	}
	if s.Auth.Error != "bad credentials" {
		t.Errorf("Error = %q, want %q", s.Auth.Error, "bad credentials")
	}
	if s.Auth.Loading {
		t.Error("LoginFailed should stop loading")
	}
}

func TestAuthLoginFailedDefaultMessage(t *testing.T) {
	s := Reduce(Initial(), LoginFailed{})
	if s.Auth.Error != "Authentication Failed" {
		t.Errorf("Error = %q, want default message", s.Auth.Error)
	}
}

func TestAuthRegisterSucceededKeepsUsername(t *testing.T) {
	s := Initial()
	s = Reduce(s, AuthFormUpdated{Field: FieldUsername, Value: "alice"})
	s = Reduce(s, AuthFormUpdated{Field: FieldEmail, Value: "alice@example.com"})
	s = Reduce(s, RegisterStarted{})
	s = Reduce(s, RegisterSucceeded{Username: "alice"})

	if s.Auth.Username != "alice" {
		t.Errorf("Username = %q, want %q", s.Auth.Username, "alice")
	}
	if s.Auth.Email != "" {
		t.Error("RegisterSucceeded should reset the email field")
	}
	if s.Auth.Notice == "" {
		t.Error("RegisterSucceeded should set a notice")
	}
}

func TestAuthLogoutResets(t *testing.T) {
	s := Initial()
	s = Reduce(s, LoginSucceeded{User: models.User{Username: "bob"}})
	s = Reduce(s, IdentityUpdated{IdentityID: "local:abc"})
	s = Reduce(s, LoggedInStatusChanged{LoggedIn: true})
	s = Reduce(s, Logout{})

	if s.Auth != initialAuth {
		t.Errorf("Auth after Logout = %+v, want initial state", s.Auth)
	}
}
