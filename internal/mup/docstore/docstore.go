// Package docstore abstracts the object storage backing uploaded document
// files. Production runs against MinIO; tests use the in-memory variant.
package docstore

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrNotFound = errors.New("object not found")

// Object is a retrieved file with its metadata.
type Object struct {
	Reader      io.ReadCloser
	Size        int64
	ContentType string
}

// ObjectStore stores document files under opaque keys.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
