package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"filesmanager/internal/blobstore"
	"filesmanager/internal/config"
	"filesmanager/internal/queue"
	"filesmanager/internal/store"
	"filesmanager/internal/thumbnail"
)

// storeOptions carries both locations; the store picks one by driver.
func storeOptions(cfg *config.Config) store.Options {
	return store.Options{
		Driver: cfg.DB.Driver,
		Path:   cfg.SQLitePath(),
		DSN:    cfg.PostgresDSN(),
	}
}

func blobOptions(cfg *config.Config) blobstore.Options {
	return blobstore.Options{
		Backend: cfg.Storage.Backend,
		Root:    cfg.Storage.FolderPath,
		S3: blobstore.S3Config{
			Bucket:    cfg.Storage.S3Bucket,
			Region:    cfg.Storage.S3Region,
			Endpoint:  cfg.Storage.S3Endpoint,
			AccessKey: cfg.Storage.S3AccessKey,
			SecretKey: cfg.Storage.S3SecretKey,
		},
	}
}

// openBackends opens the database and blob store described by cfg.
func openBackends(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store.Store, blobstore.BlobStore, error) {
	opts := storeOptions(cfg)
	logger.Info("opening database", "driver", cfg.DB.Driver, "host", cfg.DB.Host, "database", cfg.DB.Database)
	st, err := store.OpenWith(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("opening blob store", "backend", cfg.Storage.Backend, "root", cfg.Storage.FolderPath, "bucket", cfg.Storage.S3Bucket)
	blobs, err := blobstore.New(ctx, blobOptions(cfg))
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return st, blobs, nil
}

func newThumbnailQueue(st store.JobStore, cfg *config.Config, logger *slog.Logger) *queue.Queue {
	return queue.New(st, queue.ThumbnailQueue,
		queue.WithMaxAttempts(cfg.Worker.MaxAttempts),
		queue.WithRetryDelay(cfg.Worker.RetryDelay.Duration),
		queue.WithLease(cfg.Worker.Lease.Duration),
		queue.WithLogger(logger),
	)
}

func newThumbnailWorker(st *store.Store, blobs blobstore.BlobStore, q *queue.Queue, cfg *config.Config, logger *slog.Logger) *thumbnail.Worker {
	return thumbnail.NewWorker(st, blobs, q,
		thumbnail.WithConcurrency(cfg.Worker.Concurrency),
		thumbnail.WithPollInterval(cfg.Worker.PollInterval.Duration),
		thumbnail.WithLogger(logger),
	)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
