// Package storage abstracts object stores behind one small interface so
// callers do not depend on a specific cloud SDK.
package storage

import (
	"context"
	"io"
	"time"
)

type Storage interface {
	io.Closer

	PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error)
	// GetObject returns the object body; the caller owns the ReadCloser.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
	StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error)
	DeleteObject(ctx context.Context, bucket, key string) error
}

type PutOptions struct {
	// Size is the exact body length when known, zero otherwise.
	Size        int64
	ContentType string
	Metadata    map[string]string
}

type ObjectInfo struct {
	Bucket      string
	Key         string
	Size        int64
	ETag        string
	ContentType string
	Metadata    map[string]string
	UpdatedAt   time.Time
}
