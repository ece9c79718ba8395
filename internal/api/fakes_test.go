//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ashureev/misogi/internal/domain"
	"github.com/ashureev/misogi/internal/store"
)

type fakeRepo struct {
	mu       sync.Mutex
	users    map[string]*domain.User
	tasks    []domain.Task
	goals    []domain.Goal
	routines map[string]domain.RoutineLog
	journal  map[string]domain.JournalEntry
	pingErr  error
}

var _ store.Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    make(map[string]*domain.User),
		routines: make(map[string]domain.RoutineLog),
		journal:  make(map[string]domain.JournalEntry),
	}
}

func (f *fakeRepo) GetUser(_ context.Context, userID string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := f.users[userID]
	if user == nil {
		return nil, nil
	}
	copy := *user
	return &copy, nil
}

func (f *fakeRepo) UpsertUser(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy := *user
	f.users[user.UserID] = &copy
	return nil
}

func (f *fakeRepo) UpdateLastSeen(_ context.Context, userID string, lastSeen time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user := f.users[userID]; user != nil {
		user.LastSeenAt = lastSeen
	}
	return nil
}

func (f *fakeRepo) CreateTask(_ context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, *task)
	return nil
}

func (f *fakeRepo) ListTasks(_ context.Context, userID string, limit int) ([]domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Task
	for _, t := range f.tasks {
		if t.UserID == userID && len(out) < limit {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateGoal(_ context.Context, goal *domain.Goal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.goals = append(f.goals, *goal)
	return nil
}

func (f *fakeRepo) ListGoals(_ context.Context, userID string, limit int) ([]domain.Goal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Goal
	for _, g := range f.goals {
		if g.UserID == userID && len(out) < limit {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeRepo) AddResource(context.Context, *domain.Resource) error       { return nil }
func (f *fakeRepo) AddRoadmapStep(context.Context, *domain.RoadmapStep) error { return nil }

func (f *fakeRepo) UpsertRoutineLog(_ context.Context, log *domain.RoutineLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := log.RoutineID + "|" + log.Date
	if existing, ok := f.routines[key]; ok && existing.UserID != log.UserID {
		return store.ErrNotFound
	}
	f.routines[key] = *log
	return nil
}

func (f *fakeRepo) ListRoutineLogs(_ context.Context, userID, routineID string) ([]domain.RoutineLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.RoutineLog
	for _, l := range f.routines {
		if l.UserID == userID && l.RoutineID == routineID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpsertJournalEntry(_ context.Context, entry *domain.JournalEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.journal[entry.UserID+"|"+entry.Date] = *entry
	return nil
}

func (f *fakeRepo) GetJournalEntry(_ context.Context, userID, date string) (*domain.JournalEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.journal[userID+"|"+date]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &entry, nil
}

func (f *fakeRepo) CreateTransaction(context.Context, *domain.Transaction) error { return nil }

func (f *fakeRepo) Ping(context.Context) error { return f.pingErr }
func (f *fakeRepo) Close() error               { return nil }

type fakeUnlocks struct {
	mu       sync.Mutex
	sessions map[string]bool
	fail     bool
}

func (f *fakeUnlocks) Unlock(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("unavailable")
	}
	f.sessions[sessionID] = true
	return nil
}

func (f *fakeUnlocks) IsUnlocked(_ context.Context, sessionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[sessionID], nil
}
