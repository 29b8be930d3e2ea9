// Package storage archives copies of CSV exports in an object store.
package storage

import (
	"context"
	"io"
)

// ObjectStorage defines the write-side object operations the archive needs.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Bucket() string
}
