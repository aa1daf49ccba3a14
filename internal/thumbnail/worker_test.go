package thumbnail

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"io"
	"log/slog"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"filesmanager/internal/blobstore"
	"filesmanager/internal/models"
	"filesmanager/internal/queue"
	"filesmanager/internal/store"
)

type workerFixture struct {
	store *store.Store
	blobs *blobstore.LocalStore
	queue *queue.Queue
	user  *models.User
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "worker.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	blobs, err := blobstore.NewLocalStore(filepath.Join(dir, "blobs"))
	if err != nil {
		t.Fatalf("new blob store: %v", err)
	}

	user, err := st.CreateUser(context.Background(), "owner@example.com", "hash", time.Now())
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	q := queue.New(st, queue.ThumbnailQueue, queue.WithRetryDelay(0))
	t.Cleanup(q.Close)
	return &workerFixture{store: st, blobs: blobs, queue: q, user: user}
}

func (f *workerFixture) createImage(t *testing.T, data []byte) *models.File {
	t.Helper()
	key := blobstore.NewKey()
	if err := f.blobs.Write(context.Background(), key, bytes.NewReader(data)); err != nil {
		t.Fatalf("write blob: %v", err)
	}
	file := &models.File{UserID: f.user.ID, Name: "photo.png", Type: models.TypeImage, LocalPath: key}
	if err := f.store.CreateFile(context.Background(), file); err != nil {
		t.Fatalf("create file: %v", err)
	}
	return file
}

func (f *workerFixture) worker(opts ...WorkerOption) *Worker {
	opts = append([]WorkerOption{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return NewWorker(f.store, f.blobs, f.queue, opts...)
}

// noiseImage compresses poorly, so any downscaled variant encodes smaller.
func noiseImage(w, h int) *image.RGBA {
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255})
		}
	}
	return img
}

func jobFor(t *testing.T, payload any) *models.Job {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return &models.Job{ID: "job-1", Payload: data, Attempts: 1}
}

func TestProcessWritesAllVariants(t *testing.T) {
	f := newWorkerFixture(t)
	original := encodePNG(t, noiseImage(600, 400))
	file := f.createImage(t, original)

	if err := f.worker().Process(context.Background(), jobFor(t, models.ThumbnailJob{UserID: f.user.ID, FileID: file.ID})); err != nil {
		t.Fatalf("process: %v", err)
	}

	for _, size := range Sizes {
		data, err := blobstore.ReadAll(context.Background(), f.blobs, VariantKey(file.LocalPath, size))
		if err != nil {
			t.Fatalf("read %d variant: %v", size, err)
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("decode %d variant: %v", size, err)
		}
		if cfg.Width != size {
			t.Fatalf("expected width %d, got %d", size, cfg.Width)
		}
		if len(data) >= len(original) {
			t.Fatalf("expected %d variant to be smaller than original", size)
		}
	}
}

func TestProcessRejectsInvalidJobs(t *testing.T) {
	f := newWorkerFixture(t)
	file := f.createImage(t, encodePNG(t, testImage(20, 20)))
	other, err := f.store.CreateUser(context.Background(), "other@example.com", "hash", time.Now())
	if err != nil {
		t.Fatalf("create other user: %v", err)
	}
	notImage := f.createImage(t, []byte("plain text"))

	tests := []struct {
		name string
		job  *models.Job
	}{
		{name: "malformed payload", job: &models.Job{ID: "j", Payload: []byte("{")}},
		{name: "missing file id", job: jobFor(t, models.ThumbnailJob{UserID: f.user.ID})},
		{name: "missing user id", job: jobFor(t, models.ThumbnailJob{FileID: file.ID})},
		{name: "unknown file", job: jobFor(t, models.ThumbnailJob{UserID: f.user.ID, FileID: "ffffffffffffffffffffffff"})},
		{name: "wrong owner", job: jobFor(t, models.ThumbnailJob{UserID: other.ID, FileID: file.ID})},
		{name: "undecodable content", job: jobFor(t, models.ThumbnailJob{UserID: f.user.ID, FileID: notImage.ID})},
	}

	w := f.worker()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := w.Process(context.Background(), tt.job); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestRunProcessesQueuedJobs(t *testing.T) {
	f := newWorkerFixture(t)
	file := f.createImage(t, encodePNG(t, testImage(300, 200)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- f.worker(WithConcurrency(2), WithPollInterval(10*time.Millisecond)).Run(ctx)
	}()

	if _, err := f.queue.Enqueue(context.Background(), models.ThumbnailJob{UserID: f.user.ID, FileID: file.ID}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		stats, err := f.queue.Stats(context.Background())
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		if stats[models.JobDone] == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job not processed in time: %#v", stats)
		}
		time.Sleep(10 * time.Millisecond)
	}

	for _, size := range Sizes {
		exists, err := f.blobs.Exists(context.Background(), VariantKey(file.LocalPath, size))
		if err != nil || !exists {
			t.Fatalf("expected %d variant, got %v, %v", size, exists, err)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestRunNacksFailedJobs(t *testing.T) {
	f := newWorkerFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = f.worker(WithPollInterval(10 * time.Millisecond)).Run(ctx)
	}()

	if _, err := f.queue.Enqueue(context.Background(), models.ThumbnailJob{UserID: f.user.ID}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		stats, err := f.queue.Stats(context.Background())
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		if stats[models.JobFailed] == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("job not failed in time: %#v", stats)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
