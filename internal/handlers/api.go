// Package handlers implements the thin directory API: every handler is
// validation plus a single store operation, wrapped in a fixed response
// envelope. Success bodies are the raw record or list; error bodies are
// {"status": false, "error": <message>}.
package handlers

import (
	"encoding/json"
	"net/http"
)

// Error messages shared with the client.
const (
	InvalidRoomType    = `Room type must be "private" or "public"`
	InvalidPublicRoom  = `Public room name must obey room/public/[a-zA-Z0-9-]+`
	InvalidPrivateRoom = `Private room name must obey room/private/[a-zA-Z0-9-]+`
	ChatAlreadyExists  = "Chat already exists."
	UserNotFound       = "User not found."
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"status": false, "error": msg})
}
