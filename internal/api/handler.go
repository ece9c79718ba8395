// Package api provides HTTP handlers for the Misogi API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ashureev/misogi/internal/config"
	"github.com/ashureev/misogi/internal/store"
	"github.com/google/uuid"
)

// Handler provides common handler utilities.
type Handler struct {
	repo    store.Repository
	unlocks store.UnlockStore
	cfg     *config.Config
	now     func() time.Time
	newID   func() string
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, unlocks store.UnlockStore, cfg *config.Config) *Handler {
	return &Handler{
		repo:    repo,
		unlocks: unlocks,
		cfg:     cfg,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// ErrorWithDetails writes a JSON error response with an explanatory detail.
func ErrorWithDetails(w http.ResponseWriter, status int, message, details string) {
	JSON(w, status, map[string]string{"error": message, "details": details})
}

// DecodeJSON reads a size-capped JSON body into v. It writes the error
// response itself and reports whether decoding succeeded.
func DecodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	if limit <= 0 {
		limit = 1 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		ErrorWithDetails(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	return true
}

func (h *Handler) bodyLimit() int64 {
	if h.cfg == nil {
		return 1 << 20
	}
	return h.cfg.HTTP.MaxRequestBodySize
}
