package store

import (
	"context"
	"time"

	"filesmanager/internal/models"
)

// UserStore abstracts user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string, now time.Time) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	CountUsers(ctx context.Context) (int, error)
}

// FileStore abstracts file record persistence.
type FileStore interface {
	CreateFile(ctx context.Context, file *models.File) error
	GetFile(ctx context.Context, id string) (*models.File, error)
	GetOwnedFile(ctx context.Context, id, userID string) (*models.File, error)
	ListFiles(ctx context.Context, filter ListFilesFilter) ([]models.File, error)
	SetFilePublic(ctx context.Context, id, userID string, isPublic bool) (*models.File, error)
	CountFiles(ctx context.Context) (int, error)
}

// SessionStore is an expiring key to user id mapping.
type SessionStore interface {
	SetSession(ctx context.Context, key, userID string, expiresAt, now time.Time) error
	GetSession(ctx context.Context, key string, now time.Time) (string, error)
	DeleteSession(ctx context.Context, key string) (bool, error)
	PurgeExpiredSessions(ctx context.Context, now time.Time) (int, error)
}

// JobStore abstracts durable job persistence.
type JobStore interface {
	InsertJob(ctx context.Context, queue string, payload []byte, now time.Time) (*models.Job, error)
	ClaimJob(ctx context.Context, queue string, now time.Time, lease time.Duration) (*models.Job, error)
	CompleteJob(ctx context.Context, id string, now time.Time) error
	RetryJob(ctx context.Context, id, cause string, availableAt, now time.Time) error
	FailJob(ctx context.Context, id, cause string, now time.Time) error
	CountJobsByStatus(ctx context.Context, queue string) (map[models.JobStatus]int, error)
}

var (
	_ UserStore    = (*Store)(nil)
	_ FileStore    = (*Store)(nil)
	_ SessionStore = (*Store)(nil)
	_ JobStore     = (*Store)(nil)
)
