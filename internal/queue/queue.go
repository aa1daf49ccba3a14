// Package queue is a durable at-least-once job queue over the store's job table.
//
// Jobs are claimed under a lease. A worker that dies mid-job leaves the job
// running until its lease expires, after which another worker claims it again.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"filesmanager/internal/models"
	"filesmanager/internal/store"
)

// ErrClosed is returned by operations on a closed queue.
var ErrClosed = errors.New("queue closed")

// ThumbnailQueue names the queue carrying thumbnail jobs.
const ThumbnailQueue = "thumbnails"

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 5 * time.Second
	defaultLease       = 5 * time.Minute
)

// Queue produces and consumes jobs of one named queue.
type Queue struct {
	store       store.JobStore
	name        string
	maxAttempts int
	retryDelay  time.Duration
	lease       time.Duration
	now         func() time.Time
	logger      *slog.Logger

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Queue.
type Option func(*Queue)

// WithMaxAttempts sets how many claims a job gets before it is marked failed.
func WithMaxAttempts(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.maxAttempts = n
		}
	}
}

// WithRetryDelay sets the base delay between attempts; attempt n waits n times the delay.
func WithRetryDelay(d time.Duration) Option {
	return func(q *Queue) {
		if d >= 0 {
			q.retryDelay = d
		}
	}
}

// WithLease sets how long a claimed job stays reserved for its worker.
func WithLease(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.lease = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

// WithLogger sets the queue logger.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// New creates a queue named name backed by st.
func New(st store.JobStore, name string, opts ...Option) *Queue {
	q := &Queue{
		store:       st,
		name:        name,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		lease:       defaultLease,
		now:         time.Now,
		logger:      slog.Default(),
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.logger = q.logger.With("component", "queue", "queue", name)
	return q
}

// Name returns the queue name.
func (q *Queue) Name() string {
	return q.name
}

// Enqueue stores payload as a pending job and wakes one local waiter.
// It returns as soon as the job is durable.
func (q *Queue) Enqueue(ctx context.Context, payload any) (*models.Job, error) {
	if q.isClosed() {
		return nil, ErrClosed
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode job payload: %w", err)
	}
	job, err := q.store.InsertJob(ctx, q.name, data, q.now())
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	select {
	case q.wake <- struct{}{}:
	default:
	}

	q.logger.Debug("job enqueued", "job_id", job.ID)
	return job, nil
}

// Claim reserves the next available job, or returns nil when none is ready.
func (q *Queue) Claim(ctx context.Context) (*models.Job, error) {
	if q.isClosed() {
		return nil, ErrClosed
	}
	job, err := q.store.ClaimJob(ctx, q.name, q.now(), q.lease)
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return job, nil
}

// Ack marks a claimed job done.
func (q *Queue) Ack(ctx context.Context, job *models.Job) error {
	if err := q.store.CompleteJob(ctx, job.ID, q.now()); err != nil {
		return fmt.Errorf("ack job %s: %w", job.ID, err)
	}
	return nil
}

// Nack records a failed attempt. The job is retried after a linear backoff
// until it has been attempted maxAttempts times, then marked failed.
func (q *Queue) Nack(ctx context.Context, job *models.Job, cause error) error {
	reason := ""
	if cause != nil {
		reason = cause.Error()
	}
	now := q.now()

	if job.Attempts < q.maxAttempts {
		retryAt := now.Add(time.Duration(job.Attempts) * q.retryDelay)
		if err := q.store.RetryJob(ctx, job.ID, reason, retryAt, now); err != nil {
			return fmt.Errorf("retry job %s: %w", job.ID, err)
		}
		q.logger.Info("job scheduled for retry", "job_id", job.ID, "attempt", job.Attempts, "retry_at", retryAt)
		return nil
	}

	if err := q.store.FailJob(ctx, job.ID, reason, now); err != nil {
		return fmt.Errorf("fail job %s: %w", job.ID, err)
	}
	q.logger.Warn("job failed permanently", "job_id", job.ID, "attempt", job.Attempts, "error", reason)
	return nil
}

// Wait blocks until a job is enqueued locally, poll elapses, ctx ends, or the queue closes.
func (q *Queue) Wait(ctx context.Context, poll time.Duration) error {
	if poll <= 0 {
		poll = time.Second
	}
	timer := time.NewTimer(poll)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return ErrClosed
	case <-q.wake:
		return nil
	case <-timer.C:
		return nil
	}
}

// Stats returns job counts per status.
func (q *Queue) Stats(ctx context.Context) (map[models.JobStatus]int, error) {
	return q.store.CountJobsByStatus(ctx, q.name)
}

// Close stops Enqueue, Claim and Wait. Jobs already stored are kept.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}

func (q *Queue) isClosed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}
