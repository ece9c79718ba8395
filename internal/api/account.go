package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/misogi/internal/identity"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the account, record and unlock routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/me", h.GetMe)
		r.Get("/config", h.GetConfig)

		r.Get("/tasks", h.ListTasks)
		r.Post("/tasks", h.CreateTask)
		r.Get("/goals", h.ListGoals)
		r.Post("/goals", h.CreateGoal)

		r.Get("/routines/{routineID}/logs", h.ListRoutineLogs)
		r.Put("/routines/{routineID}/logs/{date}", h.PutRoutineLog)

		r.Get("/journal/{date}", h.GetJournalEntry)
		r.Put("/journal/{date}", h.PutJournalEntry)

		r.Post("/unlocks", h.Unlock)
		r.Get("/unlocks/{sessionID}", h.UnlockStatus)
	})
}

// GetMe returns the current user's information.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.repo.GetUser(r.Context(), userID)
	if err != nil || user == nil {
		Error(w, http.StatusUnauthorized, "user not found")
		return
	}

	now := h.now()
	idle := user.IdleFor(now)
	if err := h.repo.UpdateLastSeen(r.Context(), userID, now); err != nil {
		slog.Warn("Failed to update last seen", "user_id", userID, "error", err)
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"user_id":      user.UserID,
		"username":     user.Username,
		"session_id":   identity.SessionIDFromContext(r.Context()),
		"created_at":   user.CreatedAt,
		"idle_seconds": int64(idle.Seconds()),
	})
}

// GetConfig returns the server configuration for the frontend.
func (h *Handler) GetConfig(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]interface{}{"ai_enabled": false}
	if h.cfg != nil {
		resp["ai_enabled"] = h.cfg.AIEnabled()
		resp["model"] = h.cfg.Model.Name
		resp["max_upload_size"] = h.cfg.HTTP.MaxUploadSize
	}
	JSON(w, http.StatusOK, resp)
}

// Health returns the health status of the API and its dependencies.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"api": "ok"}
	status := map[string]interface{}{"status": "healthy", "checks": checks}
	statusCode := http.StatusOK

	if err := h.repo.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		status["status"] = "degraded"
		checks["database"] = "unreachable"
		statusCode = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	JSON(w, statusCode, status)
}
