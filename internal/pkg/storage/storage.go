package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound indicates the bucket or object does not exist.
var ErrObjectNotFound = errors.New("storage: object not found")

// Storage defines the read-only object operations used to fetch provisioning data.
type Storage interface {
	io.Closer

	// GetObject retrieves data and metadata for the object.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
	// StatObject returns object metadata without reading its contents.
	StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error)
}

// ObjectInfo is the metadata a driver reports alongside an object. Size is
// checked against the secrets size limit before the body is read; ETag and
// UpdatedAt are logged only and may be empty for the file driver.
type ObjectInfo struct {
	Bucket    string
	Key       string
	Size      int64
	ETag      string
	UpdatedAt time.Time
}
