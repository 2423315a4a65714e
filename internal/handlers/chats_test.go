package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iotchat/iotchat/internal/auth"
	"github.com/iotchat/iotchat/internal/models"
	"github.com/iotchat/iotchat/internal/store/memstore"
)

func authedRequest(method, target string, body []byte, identityID string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), auth.IdentityIDKey, identityID)
	return req.WithContext(ctx)
}

func TestCreateChat(t *testing.T) {
	s := memstore.New()
	body, _ := json.Marshal(map[string]string{"roomName": "room/public/room1", "type": "public"})

	rr := httptest.NewRecorder()
	CreateChat(s)(rr, authedRequest("POST", "/chats", body, "local:abc"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var chat models.Chat
	if err := json.NewDecoder(rr.Body).Decode(&chat); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if chat.Name != "room/public/room1" || chat.Type != "public" || chat.Admin != "local:abc" {
		t.Errorf("chat = %+v", chat)
	}
	if chat.CreatedAt == 0 {
		t.Error("CreatedAt must be set server-side")
	}
}

func TestCreateChatRejectsNestedName(t *testing.T) {
	s := memstore.New()
	body, _ := json.Marshal(map[string]string{"roomName": "room/public/room1/room2", "type": "public"})

	rr := httptest.NewRecorder()
	CreateChat(s)(rr, authedRequest("POST", "/chats", body, "local:abc"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}

	var envelope struct {
		Status bool   `json:"status"`
		Error  string `json:"error"`
	}
	json.NewDecoder(rr.Body).Decode(&envelope)
	if envelope.Status || envelope.Error != InvalidPublicRoom {
		t.Errorf("envelope = %+v", envelope)
	}

	chats, _ := s.ListChats()
	if len(chats) != 0 {
		t.Error("rejected chat must not be written to the store")
	}
}

func TestCreateChatRejectsBadType(t *testing.T) {
	s := memstore.New()
	body, _ := json.Marshal(map[string]string{"roomName": "room/secret/room1", "type": "secret"})

	rr := httptest.NewRecorder()
	CreateChat(s)(rr, authedRequest("POST", "/chats", body, "local:abc"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	var envelope struct {
		Error string `json:"error"`
	}
	json.NewDecoder(rr.Body).Decode(&envelope)
	if envelope.Error != InvalidRoomType {
		t.Errorf("error = %q, want %q", envelope.Error, InvalidRoomType)
	}
}

func TestCreateChatDuplicate(t *testing.T) {
	s := memstore.New()
	s.CreateChat(models.Chat{Name: "room/public/room1", Type: "public", Admin: "local:first"})

	body, _ := json.Marshal(map[string]string{"roomName": "room/public/room1", "type": "public"})
	rr := httptest.NewRecorder()
	CreateChat(s)(rr, authedRequest("POST", "/chats", body, "local:second"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	var envelope struct {
		Error string `json:"error"`
	}
	json.NewDecoder(rr.Body).Decode(&envelope)
	if envelope.Error != ChatAlreadyExists {
		t.Errorf("error = %q, want %q", envelope.Error, ChatAlreadyExists)
	}

	chats, _ := s.ListChats()
	if len(chats) != 1 || chats[0].Admin != "local:first" {
		t.Error("duplicate create must not overwrite the existing record")
	}
}

func TestListChats(t *testing.T) {
	s := memstore.New()
	s.CreateChat(models.Chat{Name: "room/public/room1", Type: "public"})
	s.CreateChat(models.Chat{Name: "room/public/room2", Type: "public"})

	rr := httptest.NewRecorder()
	ListChats(s)(rr, httptest.NewRequest("GET", "/chats", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var chats []models.Chat
	if err := json.NewDecoder(rr.Body).Decode(&chats); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(chats) != 2 {
		t.Errorf("len(chats) = %d, want 2", len(chats))
	}
}
