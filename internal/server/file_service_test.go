package server

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"

	"filesmanager/internal/models"
	"filesmanager/internal/store"
)

type failingQueue struct{ calls int }

func (q *failingQueue) Enqueue(context.Context, any) (*models.Job, error) {
	q.calls++
	return nil, errors.New("queue unreachable")
}

func (q *failingQueue) Stats(context.Context) (map[models.JobStatus]int, error) {
	return nil, errors.New("queue unreachable")
}

type failingInsert struct {
	store.FileStore
}

func (failingInsert) CreateFile(context.Context, *models.File) error {
	return errors.New("insert failed")
}

type countingList struct {
	store.FileStore
	offsets []int
}

func (c *countingList) ListFiles(_ context.Context, filter store.ListFilesFilter) ([]models.File, error) {
	c.offsets = append(c.offsets, filter.Offset)
	return []models.File{{ID: "x"}}, nil
}

func TestListSkipsOverflowingPages(t *testing.T) {
	files := &countingList{}
	svc := NewFileService(files, nil, nil, discardLogger())

	for _, page := range []int{math.MaxInt/ListPageSize + 1, math.MaxInt, -1} {
		got, err := svc.List(context.Background(), "u1", models.RootParentID, page)
		if err != nil {
			t.Fatalf("list page %d: %v", page, err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("page %d: expected empty non-nil slice, got %#v", page, got)
		}
	}
	if len(files.offsets) != 0 {
		t.Fatalf("store should not be queried, got offsets %v", files.offsets)
	}

	if _, err := svc.List(context.Background(), "u1", models.RootParentID, math.MaxInt/ListPageSize); err != nil {
		t.Fatalf("list last representable page: %v", err)
	}
	if len(files.offsets) != 1 || files.offsets[0] < 0 {
		t.Fatalf("expected one non-negative offset, got %v", files.offsets)
	}
}

func blobEntries(t *testing.T, root string) []string {
	t.Helper()
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read blob root: %v", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.Name() != ".tmp" {
			names = append(names, entry.Name())
		}
	}
	return names
}

func TestCreateImageSucceedsWhenEnqueueFails(t *testing.T) {
	env := newTestEnv(t)
	user, err := env.store.CreateUser(context.Background(), "bob@dylan.com", "hash", env.clock.Now())
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	q := &failingQueue{}
	svc := NewFileService(env.store, env.blobs, q, discardLogger())

	file, err := svc.Create(context.Background(), user.ID, CreateFileInput{Name: "a.png", Type: "image", Data: b64([]byte("img"))})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if q.calls != 1 {
		t.Fatalf("expected one enqueue attempt, got %d", q.calls)
	}
	if stored, err := env.store.GetFile(context.Background(), file.ID); err != nil || stored == nil {
		t.Fatalf("expected stored file, got %v, %v", stored, err)
	}
}

func TestCreateFileRemovesBlobWhenInsertFails(t *testing.T) {
	env := newTestEnv(t)
	svc := NewFileService(failingInsert{env.store}, env.blobs, nil, discardLogger())

	_, err := svc.Create(context.Background(), "owner", CreateFileInput{Name: "a.txt", Type: "file", Data: b64([]byte("bytes"))})
	if err == nil {
		t.Fatal("expected insert failure")
	}
	if status := httpStatusFromError(err); status != 500 {
		t.Fatalf("expected 500, got %d", status)
	}
	if names := blobEntries(t, env.blobs.Root()); len(names) != 0 {
		t.Fatalf("expected orphaned blob removed, found %v", names)
	}
}

func TestDecodeBase64AcceptsUnpadded(t *testing.T) {
	got, err := decodeBase64("aGk")
	if err != nil || string(got) != "hi" {
		t.Fatalf("expected hi, got %q (%v)", got, err)
	}
	got, err = decodeBase64(" aGk= \n")
	if err != nil || string(got) != "hi" {
		t.Fatalf("expected hi, got %q (%v)", got, err)
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		"photo.PNG":              "image/png",
		"archive":                defaultContentType,
		"x.unknown-extension-zz": defaultContentType,
	}
	for name, want := range tests {
		if got := contentTypeFor(name); got != want {
			t.Fatalf("%s: expected %q, got %q", name, want, got)
		}
	}
}
