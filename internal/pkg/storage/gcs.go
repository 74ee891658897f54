package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
)

// GCSAdapter implements Storage using Google Cloud Storage.
type GCSAdapter struct {
	client *gcs.Client
}

// GCSOptions configures GCS client initialization.
type GCSOptions struct {
	// Client provides an existing GCS client.
	Client *gcs.Client
}

// NewGCS constructs a GCS adapter, creating a default client when none is given.
func NewGCS(ctx context.Context, opts GCSOptions) (*GCSAdapter, error) {
	client := opts.Client
	if client == nil {
		created, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, err
		}
		client = created
	}
	return &GCSAdapter{client: client}, nil
}

// GetObject retrieves data and metadata from GCS.
func (g *GCSAdapter) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	reader, err := g.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, ObjectInfo{}, gcsError(bucket, key, err)
	}
	return reader, ObjectInfo{
		Bucket:    bucket,
		Key:       key,
		Size:      reader.Attrs.Size,
		UpdatedAt: reader.Attrs.LastModified,
	}, nil
}

// StatObject returns metadata for a GCS object.
func (g *GCSAdapter) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	attrs, err := g.client.Bucket(bucket).Object(key).Attrs(ctx)
	if err != nil {
		return ObjectInfo{}, gcsError(bucket, key, err)
	}
	return gcsAttrsToInfo(attrs), nil
}

// Close releases resources for the GCS adapter.
func (g *GCSAdapter) Close() error {
	return g.client.Close()
}

func gcsAttrsToInfo(attrs *gcs.ObjectAttrs) ObjectInfo {
	return ObjectInfo{
		Bucket:    attrs.Bucket,
		Key:       attrs.Name,
		Size:      attrs.Size,
		ETag:      attrs.Etag,
		UpdatedAt: attrs.Updated,
	}
}

func gcsError(bucket, key string, err error) error {
	if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) {
		return fmt.Errorf("%w: gs://%s/%s", ErrObjectNotFound, bucket, key)
	}
	return err
}
