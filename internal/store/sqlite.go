package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/misogi/internal/domain"
	"github.com/ashureev/misogi/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository and UnlockStore using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	unlockTTL time.Duration
	now       func() time.Time
}

var (
	_ Repository  = (*SQLiteStore)(nil)
	_ UnlockStore = (*SQLiteStore)(nil)
)

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithUnlockTTL makes unlocks expire after ttl. Zero keeps them forever.
func WithUnlockTTL(ttl time.Duration) Option {
	return func(s *SQLiteStore) { s.unlockTTL = ttl }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) { s.now = now }
}

// NewSQLite creates a new SQLite-backed store.
func NewSQLite(dbPath string, opts ...Option) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		priority TEXT NOT NULL,
		status TEXT NOT NULL,
		due_date TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id, created_at);

	CREATE TABLE IF NOT EXISTS goals (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		target_amount REAL NOT NULL DEFAULT 0,
		deadline TEXT NOT NULL DEFAULT '',
		pillar TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_goals_user ON goals(user_id, created_at);

	CREATE TABLE IF NOT EXISTS misogi_resources (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		misogi_id TEXT NOT NULL,
		title TEXT NOT NULL,
		url TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS misogi_roadmap (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		misogi_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS routine_logs (
		routine_id TEXT NOT NULL,
		date TEXT NOT NULL,
		user_id TEXT NOT NULL,
		completed_blocks_json TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (routine_id, date)
	);

	CREATE TABLE IF NOT EXISTS journal_entries (
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		content TEXT NOT NULL,
		mood TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, date)
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		merchant TEXT NOT NULL,
		date TEXT NOT NULL DEFAULT '',
		total REAL NOT NULL,
		currency TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		items_json TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, created_at);

	CREATE TABLE IF NOT EXISTS unlocks (
		session_id TEXT PRIMARY KEY,
		unlocked_at INTEGER NOT NULL,
		expires_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_unlocks_expires ON unlocks(expires_at) WHERE expires_at IS NOT NULL;
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func (s *SQLiteStore) exec(ctx context.Context, op, query string, args ...any) (sql.Result, error) {
	var result sql.Result
	err := shared.RetryOnConflict(ctx, shared.DefaultRetryPolicy, op, func() error {
		var execErr error
		result, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetUser retrieves a user by their user ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT user_id, username, last_seen_at, created_at, updated_at
		FROM users WHERE user_id = ?`

	var user domain.User
	var lastSeen, createdAt, updatedAt int64
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.UserID, &user.Username, &lastSeen, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.LastSeenAt = time.Unix(lastSeen, 0)
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)
	return &user, nil
}

// UpsertUser creates or updates a user record.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
	INSERT INTO users (user_id, username, last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		username = excluded.username,
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	_, err := s.exec(ctx, "upsert user", query,
		user.UserID, user.Username, user.LastSeenAt.Unix(),
		user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
	)
	return err
}

// UpdateLastSeen updates the last_seen_at timestamp for a user.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error {
	query := `UPDATE users SET last_seen_at = ?, updated_at = ? WHERE user_id = ?`
	result, err := s.exec(ctx, "update last_seen", query, lastSeen.Unix(), s.now().Unix(), userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateLastSeen affected 0 rows", "user_id", userID)
	}
	return nil
}

// CreateTask inserts a task.
func (s *SQLiteStore) CreateTask(ctx context.Context, task *domain.Task) error {
	query := `
	INSERT INTO tasks (id, user_id, title, notes, category, priority, status, due_date, source, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.exec(ctx, "insert task", query,
		task.ID, task.UserID, task.Title, task.Notes, string(task.Category), string(task.Priority),
		task.Status, task.DueDate, task.Source, task.CreatedAt.Unix(),
	)
	return err
}

// ListTasks returns the user's most recent tasks, newest first.
func (s *SQLiteStore) ListTasks(ctx context.Context, userID string, limit int) ([]domain.Task, error) {
	query := `
		SELECT id, user_id, title, notes, category, priority, status, due_date, source, created_at
		FROM tasks WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer closeRows(rows, "tasks")

	tasks := []domain.Task{}
	for rows.Next() {
		var t domain.Task
		var category, priority string
		var createdAt int64
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Notes, &category, &priority,
			&t.Status, &t.DueDate, &t.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("scan task row: %w", err)
		}
		t.Category = domain.TaskCategory(category)
		t.Priority = domain.Priority(priority)
		t.CreatedAt = time.Unix(createdAt, 0)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// CreateGoal inserts a goal.
func (s *SQLiteStore) CreateGoal(ctx context.Context, goal *domain.Goal) error {
	query := `
	INSERT INTO goals (id, user_id, title, description, target_amount, deadline, pillar, source, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.exec(ctx, "insert goal", query,
		goal.ID, goal.UserID, goal.Title, goal.Description, goal.TargetAmount,
		goal.Deadline, goal.Pillar, goal.Source, goal.CreatedAt.Unix(),
	)
	return err
}

// ListGoals returns the user's goals, newest first.
func (s *SQLiteStore) ListGoals(ctx context.Context, userID string, limit int) ([]domain.Goal, error) {
	query := `
		SELECT id, user_id, title, description, target_amount, deadline, pillar, source, created_at
		FROM goals WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer closeRows(rows, "goals")

	goals := []domain.Goal{}
	for rows.Next() {
		var g domain.Goal
		var createdAt int64
		if err := rows.Scan(&g.ID, &g.UserID, &g.Title, &g.Description, &g.TargetAmount,
			&g.Deadline, &g.Pillar, &g.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("scan goal row: %w", err)
		}
		g.CreatedAt = time.Unix(createdAt, 0)
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return goals, nil
}

// AddResource attaches a resource to a Misogi.
func (s *SQLiteStore) AddResource(ctx context.Context, res *domain.Resource) error {
	query := `
	INSERT INTO misogi_resources (id, user_id, misogi_id, title, url, kind, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.exec(ctx, "insert resource", query,
		res.ID, res.UserID, res.MisogiID, res.Title, res.URL, res.Kind, s.now().Unix(),
	)
	return err
}

// AddRoadmapStep appends a roadmap step. A zero Position places it after the last step.
func (s *SQLiteStore) AddRoadmapStep(ctx context.Context, step *domain.RoadmapStep) error {
	if step.Position <= 0 {
		var maxPos sql.NullInt64
		err := s.db.QueryRowContext(ctx,
			`SELECT MAX(position) FROM misogi_roadmap WHERE user_id = ? AND misogi_id = ?`,
			step.UserID, step.MisogiID,
		).Scan(&maxPos)
		if err != nil {
			return fmt.Errorf("query roadmap position: %w", err)
		}
		step.Position = int(maxPos.Int64) + 1
	}

	query := `
	INSERT INTO misogi_roadmap (id, user_id, misogi_id, title, description, position, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.exec(ctx, "insert roadmap step", query,
		step.ID, step.UserID, step.MisogiID, step.Title, step.Description, step.Position, s.now().Unix(),
	)
	return err
}

// UpsertRoutineLog creates or overwrites the log for (routine_id, date).
// A row owned by another user is never overwritten.
func (s *SQLiteStore) UpsertRoutineLog(ctx context.Context, log *domain.RoutineLog) error {
	blocks := log.CompletedBlocks
	if blocks == nil {
		blocks = []string{}
	}
	blocksJSON, err := json.Marshal(blocks)
	if err != nil {
		return fmt.Errorf("marshal completed blocks: %w", err)
	}
	if log.UpdatedAt.IsZero() {
		log.UpdatedAt = s.now()
	}

	query := `
	INSERT INTO routine_logs (routine_id, date, user_id, completed_blocks_json, notes, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(routine_id, date) DO UPDATE SET
		completed_blocks_json = excluded.completed_blocks_json,
		notes = excluded.notes,
		updated_at = excluded.updated_at
	WHERE routine_logs.user_id = excluded.user_id`

	result, err := s.exec(ctx, "upsert routine log", query,
		log.RoutineID, log.Date, log.UserID, string(blocksJSON), log.Notes, log.UpdatedAt.Unix(),
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("upsert routine log %s/%s: %w", log.RoutineID, log.Date, ErrNotFound)
	}
	return nil
}

// ListRoutineLogs returns every log of a routine, oldest date first.
func (s *SQLiteStore) ListRoutineLogs(ctx context.Context, userID, routineID string) ([]domain.RoutineLog, error) {
	query := `
		SELECT routine_id, date, user_id, completed_blocks_json, notes, updated_at
		FROM routine_logs WHERE user_id = ? AND routine_id = ? ORDER BY date ASC`

	rows, err := s.db.QueryContext(ctx, query, userID, routineID)
	if err != nil {
		return nil, fmt.Errorf("query routine logs: %w", err)
	}
	defer closeRows(rows, "routine logs")

	logs := []domain.RoutineLog{}
	for rows.Next() {
		var l domain.RoutineLog
		var blocksJSON string
		var updatedAt int64
		if err := rows.Scan(&l.RoutineID, &l.Date, &l.UserID, &blocksJSON, &l.Notes, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan routine log row: %w", err)
		}
		if err := json.Unmarshal([]byte(blocksJSON), &l.CompletedBlocks); err != nil {
			return nil, fmt.Errorf("decode completed blocks: %w", err)
		}
		l.UpdatedAt = time.Unix(updatedAt, 0)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate routine logs: %w", err)
	}
	return logs, nil
}

// UpsertJournalEntry creates or overwrites the entry for (user_id, date).
func (s *SQLiteStore) UpsertJournalEntry(ctx context.Context, entry *domain.JournalEntry) error {
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = s.now()
	}
	query := `
	INSERT INTO journal_entries (user_id, date, content, mood, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id, date) DO UPDATE SET
		content = excluded.content,
		mood = excluded.mood,
		updated_at = excluded.updated_at`
	_, err := s.exec(ctx, "upsert journal entry", query,
		entry.UserID, entry.Date, entry.Content, entry.Mood, entry.UpdatedAt.Unix(),
	)
	return err
}

// GetJournalEntry returns the entry for a date or ErrNotFound.
func (s *SQLiteStore) GetJournalEntry(ctx context.Context, userID, date string) (*domain.JournalEntry, error) {
	query := `SELECT user_id, date, content, mood, updated_at FROM journal_entries WHERE user_id = ? AND date = ?`

	var entry domain.JournalEntry
	var updatedAt int64
	err := s.db.QueryRowContext(ctx, query, userID, date).Scan(
		&entry.UserID, &entry.Date, &entry.Content, &entry.Mood, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan journal entry: %w", err)
	}
	entry.UpdatedAt = time.Unix(updatedAt, 0)
	return &entry, nil
}

// CreateTransaction stores an extracted expense.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	items := tx.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal line items: %w", err)
	}

	query := `
	INSERT INTO transactions (id, user_id, merchant, date, total, currency, category, items_json, source, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.exec(ctx, "insert transaction", query,
		tx.ID, tx.UserID, tx.Merchant, tx.Date, tx.Total, tx.Currency, tx.Category,
		string(itemsJSON), tx.Source, tx.CreatedAt.Unix(),
	)
	return err
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 500
	}
	return limit
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Warn("failed to close rows", "what", what, "error", err)
	}
}
