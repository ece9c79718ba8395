// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ashureev/misogi/internal/domain"
)

// ErrNotFound is returned when a scoped record does not exist.
var ErrNotFound = errors.New("record not found")

// Repository defines the interface for persisting users and their domain records.
// Every method that touches domain records is scoped by user ID.
type Repository interface {
	// GetUser retrieves a user by their user ID. Returns nil, nil when missing.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, user *domain.User) error

	// UpdateLastSeen updates the last_seen_at timestamp for a user.
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error

	// CreateTask inserts a task.
	CreateTask(ctx context.Context, task *domain.Task) error

	// ListTasks returns the user's most recent tasks, newest first.
	ListTasks(ctx context.Context, userID string, limit int) ([]domain.Task, error)

	// CreateGoal inserts a goal.
	CreateGoal(ctx context.Context, goal *domain.Goal) error

	// ListGoals returns the user's goals, newest first.
	ListGoals(ctx context.Context, userID string, limit int) ([]domain.Goal, error)

	// AddResource attaches a resource to a Misogi.
	AddResource(ctx context.Context, res *domain.Resource) error

	// AddRoadmapStep appends a roadmap step to a Misogi.
	AddRoadmapStep(ctx context.Context, step *domain.RoadmapStep) error

	// UpsertRoutineLog creates or overwrites the log for (routine_id, date).
	UpsertRoutineLog(ctx context.Context, log *domain.RoutineLog) error

	// ListRoutineLogs returns every log of a routine, oldest date first.
	ListRoutineLogs(ctx context.Context, userID, routineID string) ([]domain.RoutineLog, error)

	// UpsertJournalEntry creates or overwrites the entry for (user_id, date).
	UpsertJournalEntry(ctx context.Context, entry *domain.JournalEntry) error

	// GetJournalEntry returns the entry for a date or ErrNotFound.
	GetJournalEntry(ctx context.Context, userID, date string) (*domain.JournalEntry, error)

	// CreateTransaction stores an extracted expense.
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

// UnlockStore records which payment sessions have been unlocked.
type UnlockStore interface {
	// Unlock marks a session as unlocked. Unlocking twice is not an error.
	Unlock(ctx context.Context, sessionID string) error

	// IsUnlocked reports whether the session has been unlocked and not expired.
	IsUnlocked(ctx context.Context, sessionID string) (bool, error)
}
