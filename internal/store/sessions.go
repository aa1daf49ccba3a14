package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// SetSession maps key to userID until expiresAt, replacing any previous mapping.
func (s *Store) SetSession(ctx context.Context, key, userID string, expiresAt, now time.Time) error {
	key = strings.TrimSpace(key)
	userID = strings.TrimSpace(userID)
	if key == "" {
		return fmt.Errorf("session key is required")
	}
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	_, err := s.exec(ctx, `
		INSERT INTO sessions (key_hash, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key_hash) DO UPDATE
		SET user_id = excluded.user_id,
		    expires_at = excluded.expires_at,
		    created_at = excluded.created_at
	`, key, userID, dbFormatTime(expiresAt), dbFormatTime(now))
	return err
}

// GetSession returns the user id stored under key, or "" when absent or expired at now.
// Reads never extend the expiry.
func (s *Store) GetSession(ctx context.Context, key string, now time.Time) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", nil
	}

	var userID string
	err := s.queryRow(ctx, `
		SELECT user_id
		FROM sessions
		WHERE key_hash = ?
		  AND expires_at > ?
		LIMIT 1
	`, key, dbFormatTime(now)).Scan(&userID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

// DeleteSession removes key and reports whether a row existed.
func (s *Store) DeleteSession(ctx context.Context, key string) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, nil
	}
	result, err := s.exec(ctx, "DELETE FROM sessions WHERE key_hash = ?", key)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// PurgeExpiredSessions deletes sessions that expired at or before now.
func (s *Store) PurgeExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	result, err := s.exec(ctx, "DELETE FROM sessions WHERE expires_at <= ?", dbFormatTime(now))
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
