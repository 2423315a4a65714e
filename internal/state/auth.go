package state

import "github.com/iotchat/iotchat/internal/models"

// AuthState is the authentication region: form fields, transient status and
// the authenticated user.
type AuthState struct {
	Username   string
	Password   string
	Email      string
	Error      string
	Notice     string
	Loading    bool
	LoggedIn   bool
	User       *models.User
	IdentityID string
}

var initialAuth = AuthState{}

func reduceAuth(s AuthState, e Event) AuthState {
	switch e := e.(type) {
	case LoginStarted:
		s.Loading = true
		s.Error = ""
		s.Notice = ""
		return s
	case LoginSucceeded:
		next := initialAuth
		next.User = &e.User
		return next
	case LoginFailed:
		s.Error = e.Error
		if s.Error == "" {
			s.Error = "Authentication Failed"
		}
		s.Password = ""
		s.Loading = false
		return s
	case LoggedInStatusChanged:
		s.LoggedIn = e.LoggedIn
		return s
	case RegisterStarted:
		s.Loading = true
		s.Error = ""
		s.Notice = ""
		return s
	case RegisterSucceeded:
		next := initialAuth
		next.Username = e.Username
		next.Notice = "Registration successful. Please sign in"
		return next
	case RegisterFailed:
		next := initialAuth
		next.Error = e.Error
		if next.Error == "" {
			next.Error = "Registration Failed"
		}
		return next
	case AuthFormUpdated:
		switch e.Field {
		case FieldUsername:
			s.Username = e.Value
		case FieldPassword:
			s.Password = e.Value
		case FieldEmail:
			s.Email = e.Value
		}
		return s
	case IdentityUpdated:
		s.IdentityID = e.IdentityID
		return s
	case Logout:
		return initialAuth
	default:
		return s
	}
}
