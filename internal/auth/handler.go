package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iotchat/iotchat/internal/models"
	"github.com/iotchat/iotchat/internal/store"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string         `json:"token"`
	User  models.Account `json:"user"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"status": false, "error": msg})
}

func RegisterHandler(s store.Store, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		req.Email = strings.TrimSpace(req.Email)

		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}
		if len(req.Password) < 6 {
			writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
		if err != nil {
			slog.Error("failed to hash password", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		account, err := s.CreateAccount(models.Account{
			IdentityID: NewIdentityID(),
			Username:   req.Username,
			Email:      req.Email,
			Password:   string(hash),
			CreatedAt:  time.Now(),
		})
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				writeError(w, http.StatusBadRequest, "username or email already exists")
				return
			}
			slog.Error("failed to create account", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		token, err := GenerateToken(account.IdentityID, account.Username, jwtSecret)
		if err != nil {
			slog.Error("failed to generate token", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, authResponse{Token: token, User: account})
	}
}

func LoginHandler(s store.Store, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		account, err := s.GetAccountByUsername(req.Username)
		if err != nil {
			slog.Error("failed to get account", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if account == nil {
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(req.Password)); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}

		token, err := GenerateToken(account.IdentityID, account.Username, jwtSecret)
		if err != nil {
			slog.Error("failed to generate token", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, authResponse{Token: token, User: *account})
	}
}
