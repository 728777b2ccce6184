// Package httpx holds the JSON response helpers shared by handlers and
// middleware.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/petermazzocco/cloud-vault/internal/apperr"
)

type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorBody{Message: msg})
}

// WriteError maps err to its status code. Store and unclassified errors are
// reported with fallback instead of their own text.
func WriteError(w http.ResponseWriter, err error, fallback string) {
	WriteMessage(w, apperr.StatusCode(err), apperr.Message(err, fallback))
}
