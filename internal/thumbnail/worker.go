// Package thumbnail generates resized variants of uploaded images from queued jobs.
package thumbnail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"filesmanager/internal/blobstore"
	"filesmanager/internal/models"
	"filesmanager/internal/queue"
)

const defaultPollInterval = time.Second

// JobSource delivers jobs to workers.
type JobSource interface {
	Claim(ctx context.Context) (*models.Job, error)
	Ack(ctx context.Context, job *models.Job) error
	Nack(ctx context.Context, job *models.Job, cause error) error
	Wait(ctx context.Context, poll time.Duration) error
}

// FileLookup loads file records scoped to their owner.
type FileLookup interface {
	GetOwnedFile(ctx context.Context, id, userID string) (*models.File, error)
}

var (
	errMissingUserID = errors.New("missing userId")
	errMissingFileID = errors.New("missing fileId")
	errFileNotFound  = errors.New("file not found")
)

// Worker consumes thumbnail jobs.
type Worker struct {
	files       FileLookup
	blobs       blobstore.BlobStore
	source      JobSource
	concurrency int
	poll        time.Duration
	logger      *slog.Logger
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithConcurrency sets the number of jobs processed in parallel.
func WithConcurrency(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithPollInterval sets how often idle workers look for jobs enqueued by other processes.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.poll = d
		}
	}
}

// WithLogger sets the worker logger.
func WithLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWorker creates a thumbnail worker.
func NewWorker(files FileLookup, blobs blobstore.BlobStore, source JobSource, opts ...WorkerOption) *Worker {
	w := &Worker{
		files:       files,
		blobs:       blobs,
		source:      source,
		concurrency: 1,
		poll:        defaultPollInterval,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("component", "worker")
	return w
}

// Run processes jobs until ctx ends or the source closes.
// Each of the concurrency loops handles one job at a time.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("thumbnail worker started", "concurrency", w.concurrency, "poll", w.poll.String())
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		g.Go(func() error {
			w.loop(gctx)
			return nil
		})
	}
	err := g.Wait()
	w.logger.Info("thumbnail worker stopped")
	return err
}

func (w *Worker) loop(ctx context.Context) {
	for ctx.Err() == nil {
		job, err := w.source.Claim(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrClosed) || ctx.Err() != nil {
				return
			}
			w.logger.Error("claim job failed", "error", err)
		}
		if job != nil {
			w.handle(ctx, job)
			continue
		}
		if err := w.source.Wait(ctx, w.poll); err != nil {
			return
		}
	}
}

// handle settles a job even when ctx has been cancelled mid-flight.
func (w *Worker) handle(ctx context.Context, job *models.Job) {
	err := w.Process(ctx, job)
	settle := context.WithoutCancel(ctx)
	if err != nil {
		if nackErr := w.source.Nack(settle, job, err); nackErr != nil {
			w.logger.Error("nack job failed", "job_id", job.ID, "error", nackErr)
		}
		return
	}
	if ackErr := w.source.Ack(settle, job); ackErr != nil {
		w.logger.Error("ack job failed", "job_id", job.ID, "error", ackErr)
	}
}

// Process runs one job through received, validated, processing and done.
// Variants written before a failure are kept; rerunning overwrites them.
func (w *Worker) Process(ctx context.Context, job *models.Job) error {
	log := w.logger.With("job_id", job.ID, "attempt", job.Attempts)

	var payload models.ThumbnailJob
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		log.Warn("job failed", "state", "received", "error", err)
		return fmt.Errorf("decode job payload: %w", err)
	}
	log = log.With("file_id", payload.FileID)
	log.Debug("job received")

	switch {
	case strings.TrimSpace(payload.FileID) == "":
		log.Warn("job failed", "state", "received", "error", errMissingFileID)
		return errMissingFileID
	case strings.TrimSpace(payload.UserID) == "":
		log.Warn("job failed", "state", "received", "error", errMissingUserID)
		return errMissingUserID
	}

	file, err := w.files.GetOwnedFile(ctx, payload.FileID, payload.UserID)
	if err != nil {
		log.Error("job failed", "state", "validated", "error", err)
		return fmt.Errorf("load file: %w", err)
	}
	if file == nil || file.LocalPath == "" {
		log.Warn("job failed", "state", "validated", "error", errFileNotFound)
		return errFileNotFound
	}
	log.Debug("job validated", "type", file.Type)

	log.Debug("job processing", "sizes", Sizes)
	original, err := blobstore.ReadAll(ctx, w.blobs, file.LocalPath)
	if err != nil {
		log.Error("job failed", "state", "processing", "error", err)
		return fmt.Errorf("read original: %w", err)
	}
	for _, size := range Sizes {
		thumb, err := Resize(original, size)
		if err != nil {
			log.Warn("job failed", "state", "processing", "size", size, "error", err)
			return fmt.Errorf("resize to %d: %w", size, err)
		}
		if err := w.blobs.Write(ctx, VariantKey(file.LocalPath, size), bytes.NewReader(thumb)); err != nil {
			log.Error("job failed", "state", "processing", "size", size, "error", err)
			return fmt.Errorf("write %d variant: %w", size, err)
		}
	}

	log.Info("job done")
	return nil
}
