package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"filesmanager/internal/models"
)

const userColumns = "id, email, password_hash, created_at"

// CreateUser inserts one user. A taken email yields ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash string, now time.Time) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if strings.TrimSpace(passwordHash) == "" {
		return nil, fmt.Errorf("password hash is required")
	}

	id, err := GenerateID()
	if err != nil {
		return nil, err
	}

	_, err = s.exec(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`, id, email, passwordHash, dbFormatTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create user %q: %w", email, ErrDuplicate)
		}
		return nil, err
	}

	return &models.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now.UTC(),
	}, nil
}

// GetUserByEmail returns one user by exact email, or nil when absent.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}
	row := s.queryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1", email)
	return scanUser(row)
}

// GetUserByID returns one user by id, or nil when absent.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	row := s.queryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id)
	return scanUser(row)
}

// CountUsers returns the number of registered users.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.queryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanUser(scanner interface {
	Scan(dest ...any) error
}) (*models.User, error) {
	var user models.User
	var createdAt string
	if err := scanner.Scan(&user.ID, &user.Email, &user.PasswordHash, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	parsed, err := dbParseTime(createdAt)
	if err != nil {
		return nil, err
	}
	user.CreatedAt = parsed
	return &user, nil
}
