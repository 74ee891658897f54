package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// FileAdapter implements Storage on the local filesystem. The bucket is a
// directory and the key a path relative to it.
type FileAdapter struct{}

// NewFile constructs a filesystem adapter.
func NewFile() *FileAdapter {
	return &FileAdapter{}
}

// GetObject opens the file at bucket/key.
func (f *FileAdapter) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, ObjectInfo{}, err
	}

	path := filepath.Join(bucket, filepath.Clean("/"+key))
	// #nosec G304 -- path is built from trusted configuration.
	file, err := os.Open(path)
	if err != nil {
		return nil, ObjectInfo{}, fileError(path, err)
	}

	stat, err := file.Stat()
	if err != nil {
		closeErr := file.Close()
		if closeErr != nil {
			return nil, ObjectInfo{}, closeErr
		}
		return nil, ObjectInfo{}, err
	}

	return file, fileInfo(bucket, key, stat), nil
}

// StatObject returns metadata for the file at bucket/key.
func (f *FileAdapter) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}

	path := filepath.Join(bucket, filepath.Clean("/"+key))
	stat, err := os.Stat(path)
	if err != nil {
		return ObjectInfo{}, fileError(path, err)
	}

	return fileInfo(bucket, key, stat), nil
}

// Close is a no-op for the filesystem adapter.
func (f *FileAdapter) Close() error {
	return nil
}

func fileError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, path)
	}
	return err
}

func fileInfo(bucket, key string, stat fs.FileInfo) ObjectInfo {
	return ObjectInfo{
		Bucket:    bucket,
		Key:       key,
		Size:      stat.Size(),
		UpdatedAt: stat.ModTime(),
	}
}
