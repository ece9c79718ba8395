package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Unlock marks a payment session as unlocked.
func (s *SQLiteStore) Unlock(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("unlock: empty session id")
	}

	now := s.now()
	var expiresAt any
	if s.unlockTTL > 0 {
		expiresAt = now.Add(s.unlockTTL).Unix()
	}

	query := `
	INSERT INTO unlocks (session_id, unlocked_at, expires_at)
	VALUES (?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET
		unlocked_at = excluded.unlocked_at,
		expires_at = excluded.expires_at`
	_, err := s.exec(ctx, "upsert unlock", query, sessionID, now.Unix(), expiresAt)
	return err
}

// IsUnlocked reports whether the session has an unexpired unlock.
func (s *SQLiteStore) IsUnlocked(ctx context.Context, sessionID string) (bool, error) {
	var expiresAt sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT expires_at FROM unlocks WHERE session_id = ?`, sessionID,
	).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query unlock: %w", err)
	}
	if expiresAt.Valid && expiresAt.Int64 <= s.now().Unix() {
		return false, nil
	}
	return true, nil
}

// DeleteExpiredUnlocks removes unlocks whose expiry is at or before now.
func (s *SQLiteStore) DeleteExpiredUnlocks(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.exec(ctx, "delete expired unlocks",
		`DELETE FROM unlocks WHERE expires_at IS NOT NULL AND expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const redisUnlockPrefix = "misogi:unlock:"

// RedisUnlockStore keeps unlocks in Redis so every instance shares them.
type RedisUnlockStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ UnlockStore = (*RedisUnlockStore)(nil)

// NewRedisUnlockStore connects to addr and verifies the connection.
func NewRedisUnlockStore(ctx context.Context, addr string, ttl time.Duration) (*RedisUnlockStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			return nil, fmt.Errorf("ping redis at %s: %w (close: %v)", addr, err, closeErr)
		}
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return &RedisUnlockStore{client: client, ttl: ttl}, nil
}

// Unlock marks a session as unlocked. Redis expires the key when a TTL is set.
func (r *RedisUnlockStore) Unlock(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("unlock: empty session id")
	}
	if err := r.client.Set(ctx, redisUnlockPrefix+sessionID, time.Now().Unix(), r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set unlock: %w", err)
	}
	return nil
}

// IsUnlocked reports whether the session key exists.
func (r *RedisUnlockStore) IsUnlocked(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.client.Exists(ctx, redisUnlockPrefix+sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists unlock: %w", err)
	}
	return n > 0, nil
}

// Close closes the Redis connection.
func (r *RedisUnlockStore) Close() error {
	return r.client.Close()
}
