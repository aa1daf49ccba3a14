package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"filesmanager/internal/models"
)

const jobColumns = "id, queue, payload, status, attempts, last_error, available_at, created_at, updated_at"

// InsertJob stores a pending job that becomes claimable at now.
func (s *Store) InsertJob(ctx context.Context, queue string, payload []byte, now time.Time) (*models.Job, error) {
	queue = strings.TrimSpace(queue)
	if queue == "" {
		return nil, fmt.Errorf("queue name is required")
	}
	id, err := GenerateID()
	if err != nil {
		return nil, err
	}
	stamp := dbFormatTime(now)
	_, err = s.exec(ctx, `
		INSERT INTO jobs (id, queue, payload, status, attempts, last_error, available_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, '', ?, ?, ?)
	`, id, queue, string(payload), string(models.JobPending), stamp, stamp, stamp)
	if err != nil {
		return nil, err
	}
	return &models.Job{
		ID:          id,
		Queue:       queue,
		Payload:     append([]byte(nil), payload...),
		Status:      models.JobPending,
		AvailableAt: now.UTC(),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// ClaimJob moves the oldest claimable job of queue to running and returns it,
// or nil when nothing is claimable. A job is claimable when it is pending and
// due, or running with an expired lease. While running, available_at holds
// the lease deadline.
func (s *Store) ClaimJob(ctx context.Context, queue string, now time.Time, lease time.Duration) (*models.Job, error) {
	lock := ""
	if s.dialect == dialectPostgres {
		lock = " FOR UPDATE SKIP LOCKED"
	}
	stamp := dbFormatTime(now)
	row := s.queryRow(ctx, `
		UPDATE jobs
		SET status = ?, attempts = attempts + 1, available_at = ?, updated_at = ?
		WHERE seq = (
			SELECT seq FROM jobs
			WHERE queue = ?
			  AND status IN (?, ?)
			  AND available_at <= ?
			ORDER BY seq ASC
			LIMIT 1`+lock+`
		)
		RETURNING `+jobColumns,
		string(models.JobRunning), dbFormatTime(now.Add(lease)), stamp,
		queue, string(models.JobPending), string(models.JobRunning), stamp,
	)
	return scanJob(row)
}

// CompleteJob marks a running job done.
func (s *Store) CompleteJob(ctx context.Context, id string, now time.Time) error {
	return s.finishJob(ctx, id, models.JobDone, "", now, now)
}

// RetryJob returns a running job to pending, claimable again at availableAt.
func (s *Store) RetryJob(ctx context.Context, id, cause string, availableAt, now time.Time) error {
	return s.finishJob(ctx, id, models.JobPending, cause, availableAt, now)
}

// FailJob marks a running job permanently failed.
func (s *Store) FailJob(ctx context.Context, id, cause string, now time.Time) error {
	return s.finishJob(ctx, id, models.JobFailed, cause, now, now)
}

func (s *Store) finishJob(ctx context.Context, id string, status models.JobStatus, cause string, availableAt, now time.Time) error {
	result, err := s.exec(ctx, `
		UPDATE jobs
		SET status = ?, last_error = ?, available_at = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, string(status), cause, dbFormatTime(availableAt), dbFormatTime(now), id, string(models.JobRunning))
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("job %s is not running", id)
	}
	return nil
}

// GetJob returns one job by id, or nil when absent.
func (s *Store) GetJob(ctx context.Context, id string) (*models.Job, error) {
	row := s.queryRow(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = ? LIMIT 1", id)
	return scanJob(row)
}

// CountJobsByStatus returns the number of jobs of queue in each status.
func (s *Store) CountJobsByStatus(ctx context.Context, queue string) (map[models.JobStatus]int, error) {
	rows, err := s.query(ctx, "SELECT status, COUNT(*) FROM jobs WHERE queue = ? GROUP BY status", queue)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[models.JobStatus]int{
		models.JobPending: 0,
		models.JobRunning: 0,
		models.JobDone:    0,
		models.JobFailed:  0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[models.JobStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func scanJob(scanner interface {
	Scan(dest ...any) error
}) (*models.Job, error) {
	var job models.Job
	var payload string
	var status string
	var availableAt, createdAt, updatedAt string
	if err := scanner.Scan(&job.ID, &job.Queue, &payload, &status, &job.Attempts, &job.LastError, &availableAt, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	job.Payload = []byte(payload)
	job.Status = models.JobStatus(status)

	var err error
	if job.AvailableAt, err = dbParseTime(availableAt); err != nil {
		return nil, err
	}
	if job.CreatedAt, err = dbParseTime(createdAt); err != nil {
		return nil, err
	}
	if job.UpdatedAt, err = dbParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &job, nil
}
