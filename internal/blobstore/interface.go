package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a blob key has no stored content.
var ErrNotFound = errors.New("blob not found")

// BlobStore is the byte-storage abstraction used for file content and thumbnails.
type BlobStore interface {
	Write(ctx context.Context, key string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// NewKey returns a fresh collision-resistant blob key.
func NewKey() string {
	return uuid.NewString()
}

// ReadAll reads the whole blob stored at key.
func ReadAll(ctx context.Context, store BlobStore, key string) ([]byte, error) {
	rc, err := store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Supported blob backends.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Options selects and configures a blob backend.
type Options struct {
	Backend string
	Root    string
	S3      S3Config
}

// New opens the blob backend described by opts.
func New(ctx context.Context, opts Options) (BlobStore, error) {
	switch opts.Backend {
	case "", BackendLocal:
		return NewLocalStore(opts.Root)
	case BackendS3:
		return NewS3Store(ctx, opts.S3)
	default:
		return nil, fmt.Errorf("unsupported blob backend %q", opts.Backend)
	}
}
