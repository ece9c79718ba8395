package action

import (
	"context"
	"log/slog"
	"time"

	"github.com/ashureev/misogi/internal/domain"
	"github.com/google/uuid"
)

// Store is the persistence surface the executor mutates.
type Store interface {
	CreateTask(ctx context.Context, task *domain.Task) error
	CreateGoal(ctx context.Context, goal *domain.Goal) error
	AddResource(ctx context.Context, res *domain.Resource) error
	AddRoadmapStep(ctx context.Context, step *domain.RoadmapStep) error
}

// Status is the per-action outcome.
type Status string

const (
	StatusApplied Status = "applied"
	StatusIgnored Status = "ignored"
	StatusFailed  Status = "failed"
)

// Result reports what happened to one suggestion.
type Result struct {
	Type   Type   `json:"type"`
	Label  string `json:"label,omitempty"`
	Status Status `json:"status"`
	ID     string `json:"id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Report summarizes one Execute call.
type Report struct {
	Results       []Result `json:"results"`
	ShouldRefresh bool     `json:"shouldRefresh"`
}

// Applied counts applied actions.
func (r Report) Applied() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == StatusApplied {
			n++
		}
	}
	return n
}

// Executor applies suggested actions on behalf of an authenticated user.
type Executor struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewExecutor creates an executor writing to store.
func NewExecutor(store Store, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Execute applies each suggestion independently, in order. A failing action is
// recorded and does not stop the rest. ShouldRefresh is set when at least one
// action was applied.
func (e *Executor) Execute(ctx context.Context, userID string, suggestions []Suggested) Report {
	report := Report{Results: make([]Result, 0, len(suggestions))}
	for _, s := range suggestions {
		res := e.executeOne(ctx, userID, s)
		report.Results = append(report.Results, res)
	}
	report.ShouldRefresh = report.Applied() > 0
	return report
}

func (e *Executor) executeOne(ctx context.Context, userID string, s Suggested) Result {
	res := Result{Type: s.Type, Label: s.Label}

	act, err := Decode(s)
	if err != nil {
		e.logger.Warn("Rejected suggested action", "user_id", userID, "type", s.Type, "error", err)
		res.Status = StatusFailed
		res.Error = err.Error()
		return res
	}

	id, err := e.apply(ctx, userID, act)
	switch {
	case err != nil:
		e.logger.Error("Failed to apply action", "user_id", userID, "type", s.Type, "error", err)
		res.Status = StatusFailed
		res.Error = "could not save " + string(s.Type)
	case id == "":
		e.logger.Info("Ignored unknown action type", "user_id", userID, "type", s.Type)
		res.Status = StatusIgnored
	default:
		e.logger.Info("Applied action", "user_id", userID, "type", s.Type, "id", id)
		res.Status = StatusApplied
		res.ID = id
	}
	return res
}

// apply performs the single canonical mutation for act. It returns an empty
// ID for actions that were ignored.
func (e *Executor) apply(ctx context.Context, userID string, act Action) (string, error) {
	id := e.newID()
	now := e.now()

	switch a := act.(type) {
	case CreateTask:
		return id, e.store.CreateTask(ctx, &domain.Task{
			ID:        id,
			UserID:    userID,
			Title:     a.Title,
			Notes:     a.Notes,
			Category:  a.Category,
			Priority:  a.Priority,
			Status:    domain.TaskStatusOpen,
			DueDate:   a.DueDate,
			Source:    "assistant",
			CreatedAt: now,
		})
	case CreateGoal:
		return id, e.store.CreateGoal(ctx, &domain.Goal{
			ID:           id,
			UserID:       userID,
			Title:        a.Title,
			Description:  a.Description,
			TargetAmount: a.TargetAmount,
			Deadline:     a.Deadline,
			Pillar:       a.Pillar,
			Source:       "assistant",
			CreatedAt:    now,
		})
	case AddResource:
		return id, e.store.AddResource(ctx, &domain.Resource{
			ID:       id,
			UserID:   userID,
			MisogiID: a.MisogiID,
			Title:    a.Title,
			URL:      a.URL,
			Kind:     a.ResourceKind,
		})
	case AddRoadmap:
		return id, e.store.AddRoadmapStep(ctx, &domain.RoadmapStep{
			ID:          id,
			UserID:      userID,
			MisogiID:    a.MisogiID,
			Title:       a.Title,
			Description: a.Description,
			Position:    a.Position,
		})
	case Unknown:
		return "", nil
	default:
		return "", nil
	}
}
