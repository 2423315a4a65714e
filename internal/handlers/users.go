package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/iotchat/iotchat/internal/auth"
	"github.com/iotchat/iotchat/internal/models"
	"github.com/iotchat/iotchat/internal/store"
)

// CreateUser writes the caller's directory record. Put-then-get semantics:
// repeated creations for the same identity are last write wins.
func CreateUser(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identityID, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		var req struct {
			Username string `json:"username"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Username == "" {
			writeError(w, http.StatusBadRequest, "username is required")
			return
		}

		user, err := s.PutUser(models.User{
			IdentityID: identityID,
			Username:   req.Username,
			CreatedAt:  time.Now().UnixMilli(),
		})
		if err != nil {
			slog.Error("failed to put user", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}

// GetUser looks up a directory record by identity id.
func GetUser(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identityID := mux.Vars(r)["identityId"]

		user, err := s.GetUser(identityID)
		if err != nil {
			slog.Error("failed to get user", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if user == nil {
			writeError(w, http.StatusNotFound, UserNotFound)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}

// GetMe returns the caller's own directory record.
func GetMe(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identityID, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		user, err := s.GetUser(identityID)
		if err != nil {
			slog.Error("failed to get user", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if user == nil {
			writeError(w, http.StatusNotFound, UserNotFound)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}
