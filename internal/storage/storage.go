// Package storage defines the object-store abstraction shared by the
// Cloudflare R2 and Supabase Storage adapters.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when the addressed object does not exist.
// Callers distinguish it from transport failures to map 404 vs 500.
var ErrNotFound = errors.New("storage: object not found")

// ObjectInfo describes one stored object from a listing.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore is the minimal surface the handlers need from a bucket.
// List returns at most one page of objects (page size 1000); the layer
// buckets are expected to stay well under that.
type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Download(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
}
