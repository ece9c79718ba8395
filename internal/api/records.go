package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ashureev/misogi/internal/domain"
	"github.com/ashureev/misogi/internal/identity"
	"github.com/ashureev/misogi/internal/store"
	"github.com/go-chi/chi/v5"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

type createTaskRequest struct {
	Title    string              `json:"title"`
	Notes    string              `json:"notes"`
	Category domain.TaskCategory `json:"category"`
	Priority domain.Priority     `json:"priority"`
	Status   string              `json:"status"`
	DueDate  string              `json:"due_date"`
}

type createGoalRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	TargetAmount float64 `json:"target_amount"`
	Deadline     string  `json:"deadline"`
	Pillar       string  `json:"pillar"`
}

type routineLogRequest struct {
	CompletedBlocks []string `json:"completed_blocks"`
	Notes           string   `json:"notes"`
}

type journalRequest struct {
	Content string `json:"content"`
	Mood    string `json:"mood"`
}

func listLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	return min(n, maxListLimit)
}

// ListTasks returns the caller's tasks.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	tasks, err := h.repo.ListTasks(r.Context(), userID, listLimit(r))
	if err != nil {
		slog.Error("Failed to list tasks", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

// CreateTask inserts a task for the caller.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	var req createTaskRequest
	if !DecodeJSON(w, r, h.bodyLimit(), &req) {
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Category == "" {
		req.Category = domain.TaskCategoryAction
	}
	if req.Priority == "" {
		req.Priority = domain.PriorityMedium
	}
	if req.Status == "" {
		req.Status = domain.TaskStatusInbox
	}
	if !req.Category.Valid() || !req.Priority.Valid() {
		Error(w, http.StatusBadRequest, "invalid category or priority")
		return
	}
	if req.DueDate != "" && !domain.ValidDate(req.DueDate) {
		Error(w, http.StatusBadRequest, "due_date must be YYYY-MM-DD")
		return
	}

	task := &domain.Task{
		ID:        h.newID(),
		UserID:    userID,
		Title:     req.Title,
		Notes:     req.Notes,
		Category:  req.Category,
		Priority:  req.Priority,
		Status:    req.Status,
		DueDate:   req.DueDate,
		Source:    "user",
		CreatedAt: h.now(),
	}
	if err := h.repo.CreateTask(r.Context(), task); err != nil {
		slog.Error("Failed to create task", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to create task")
		return
	}
	JSON(w, http.StatusCreated, task)
}

// ListGoals returns the caller's goals.
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	goals, err := h.repo.ListGoals(r.Context(), userID, listLimit(r))
	if err != nil {
		slog.Error("Failed to list goals", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list goals")
		return
	}
	if goals == nil {
		goals = []domain.Goal{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{"goals": goals})
}

// CreateGoal inserts a goal for the caller.
func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	var req createGoalRequest
	if !DecodeJSON(w, r, h.bodyLimit(), &req) {
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.TargetAmount < 0 {
		Error(w, http.StatusBadRequest, "target_amount must not be negative")
		return
	}
	if req.Deadline != "" && !domain.ValidDate(req.Deadline) {
		Error(w, http.StatusBadRequest, "deadline must be YYYY-MM-DD")
		return
	}

	goal := &domain.Goal{
		ID:           h.newID(),
		UserID:       userID,
		Title:        req.Title,
		Description:  req.Description,
		TargetAmount: req.TargetAmount,
		Deadline:     req.Deadline,
		Pillar:       req.Pillar,
		Source:       "user",
		CreatedAt:    h.now(),
	}
	if err := h.repo.CreateGoal(r.Context(), goal); err != nil {
		slog.Error("Failed to create goal", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to create goal")
		return
	}
	JSON(w, http.StatusCreated, goal)
}

// ListRoutineLogs returns every log of one routine.
func (h *Handler) ListRoutineLogs(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	logs, err := h.repo.ListRoutineLogs(r.Context(), userID, chi.URLParam(r, "routineID"))
	if err != nil {
		slog.Error("Failed to list routine logs", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list routine logs")
		return
	}
	if logs == nil {
		logs = []domain.RoutineLog{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{"logs": logs})
}

// PutRoutineLog records the completed blocks of a routine for a date.
// Repeating the call for the same date overwrites the previous log.
func (h *Handler) PutRoutineLog(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	routineID := strings.TrimSpace(chi.URLParam(r, "routineID"))
	date := chi.URLParam(r, "date")
	if routineID == "" || !domain.ValidDate(date) {
		Error(w, http.StatusBadRequest, "routine id and a YYYY-MM-DD date are required")
		return
	}

	var req routineLogRequest
	if !DecodeJSON(w, r, h.bodyLimit(), &req) {
		return
	}
	if req.CompletedBlocks == nil {
		req.CompletedBlocks = []string{}
	}

	log := &domain.RoutineLog{
		RoutineID:       routineID,
		UserID:          userID,
		Date:            date,
		CompletedBlocks: req.CompletedBlocks,
		Notes:           req.Notes,
		UpdatedAt:       h.now(),
	}
	if err := h.repo.UpsertRoutineLog(r.Context(), log); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, "routine not found")
			return
		}
		slog.Error("Failed to save routine log", "user_id", userID, "routine_id", routineID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to save routine log")
		return
	}
	JSON(w, http.StatusOK, log)
}

// GetJournalEntry returns the finalized entry for a date.
func (h *Handler) GetJournalEntry(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	date := chi.URLParam(r, "date")
	if !domain.ValidDate(date) {
		Error(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	entry, err := h.repo.GetJournalEntry(r.Context(), userID, date)
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "journal entry not found")
		return
	}
	if err != nil {
		slog.Error("Failed to load journal entry", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load journal entry")
		return
	}
	JSON(w, http.StatusOK, entry)
}

// PutJournalEntry finalizes the journal entry for a date.
func (h *Handler) PutJournalEntry(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	date := chi.URLParam(r, "date")
	if !domain.ValidDate(date) {
		Error(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	var req journalRequest
	if !DecodeJSON(w, r, h.bodyLimit(), &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		Error(w, http.StatusBadRequest, "content is required")
		return
	}

	entry := &domain.JournalEntry{
		UserID:    userID,
		Date:      date,
		Content:   req.Content,
		Mood:      req.Mood,
		UpdatedAt: h.now(),
	}
	if err := h.repo.UpsertJournalEntry(r.Context(), entry); err != nil {
		slog.Error("Failed to save journal entry", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to save journal entry")
		return
	}
	JSON(w, http.StatusOK, entry)
}
