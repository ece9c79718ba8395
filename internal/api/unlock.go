package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type unlockRequest struct {
	SessionID string `json:"sessionId"`
}

// Unlock records a completed payment session.
func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest
	if !DecodeJSON(w, r, h.bodyLimit(), &req) {
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		Error(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	if err := h.unlocks.Unlock(r.Context(), req.SessionID); err != nil {
		slog.Error("Failed to record unlock", "session_id", req.SessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to record unlock")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"sessionId": req.SessionID, "unlocked": true})
}

// UnlockStatus reports whether a payment session has been unlocked.
func (h *Handler) UnlockStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	ok, err := h.unlocks.IsUnlocked(r.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to check unlock", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to check unlock")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"sessionId": sessionID, "unlocked": ok})
}
