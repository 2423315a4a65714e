package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/iotchat/iotchat/internal/auth"
	"github.com/iotchat/iotchat/internal/models"
	"github.com/iotchat/iotchat/internal/store"
	"github.com/iotchat/iotchat/internal/topic"
)

// ListChats returns every chat record.
func ListChats(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chats, err := s.ListChats()
		if err != nil {
			slog.Error("failed to list chats", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, chats)
	}
}

// CreateChat validates the room name against the topic grammar, rejects
// duplicates, and stores the record with server-set creation time and the
// caller as admin. Validation failures never reach the store.
func CreateChat(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identityID, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		var req struct {
			RoomName string `json:"roomName"`
			Type     string `json:"type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if !topic.ValidType(req.Type) {
			writeError(w, http.StatusBadRequest, InvalidRoomType)
			return
		}
		if !topic.ValidRoomOfType(req.RoomName, req.Type) {
			if req.Type == topic.TypePublic {
				writeError(w, http.StatusBadRequest, InvalidPublicRoom)
			} else {
				writeError(w, http.StatusBadRequest, InvalidPrivateRoom)
			}
			return
		}

		existing, err := s.GetChat(req.RoomName)
		if err != nil {
			slog.Error("failed to check chat", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if existing != nil {
			writeError(w, http.StatusBadRequest, ChatAlreadyExists)
			return
		}

		chat, err := s.CreateChat(models.Chat{
			Name:      req.RoomName,
			Type:      req.Type,
			Admin:     identityID,
			CreatedAt: time.Now().UnixMilli(),
		})
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				writeError(w, http.StatusBadRequest, ChatAlreadyExists)
				return
			}
			slog.Error("failed to create chat", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, chat)
	}
}
