package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Driver names accepted by NewFromDriver.
const (
	DriverFile  = "file"
	DriverS3    = "s3"
	DriverGCS   = "gcs"
	DriverMinIO = "minio"
)

// ErrUnknownDriver indicates an unsupported storage driver.
var ErrUnknownDriver = errors.New("storage: unknown driver")

// FactoryOptions carries the settings of every remote driver; only the one
// matching the selected driver is read.
type FactoryOptions struct {
	S3    S3Options
	GCS   GCSOptions
	MinIO MinIOOptions
}

type driver struct {
	remote bool
	open   func(context.Context, FactoryOptions) (Storage, error)
}

var drivers = map[string]driver{
	DriverFile: {open: func(context.Context, FactoryOptions) (Storage, error) {
		return NewFile(), nil
	}},
	DriverS3: {remote: true, open: func(ctx context.Context, o FactoryOptions) (Storage, error) {
		return NewS3(ctx, o.S3)
	}},
	DriverGCS: {remote: true, open: func(ctx context.Context, o FactoryOptions) (Storage, error) {
		return NewGCS(ctx, o.GCS)
	}},
	DriverMinIO: {remote: true, open: func(_ context.Context, o FactoryOptions) (Storage, error) {
		return NewMinIO(o.MinIO)
	}},
}

func lookup(name string) (driver, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DriverFile
	}
	d, ok := drivers[name]
	return d, ok
}

// NewFromDriver opens the backend registered under name. An empty name
// selects the local filesystem.
func NewFromDriver(ctx context.Context, name string, opts FactoryOptions) (Storage, error) {
	d, ok := lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, name)
	}
	return d.open(ctx, opts)
}

// IsRemote reports whether the named driver reaches over the network.
func IsRemote(name string) bool {
	d, ok := lookup(name)
	return ok && d.remote
}
