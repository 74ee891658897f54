// Package source fetches the provisioning file from object storage.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpdeck/internal/pkg/goerror"
	"github.com/shandysiswandi/otpdeck/internal/pkg/storage"
)

const (
	defaultMaxBytes = 1 << 20
	defaultTimeout  = 10 * time.Second
	defaultBackoff  = 250 * time.Millisecond
)

// ErrTooLarge indicates the provisioning object exceeds Config.MaxBytes.
var ErrTooLarge = errors.New("source: provisioning object too large")

// Unsealer decrypts an encrypted provisioning object.
type Unsealer interface {
	Open(envelope []byte) ([]byte, error)
}

// Config locates the provisioning object.
type Config struct {
	Bucket string
	Key    string

	// Timeout bounds each fetch attempt.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after a failed fetch. Missing
	// objects are never retried.
	MaxRetries uint64
	// Backoff is the first retry delay; it doubles per attempt.
	Backoff time.Duration
	// MaxBytes caps the object size.
	MaxBytes int64
	// Unsealer, when set, decrypts the object before it is parsed.
	Unsealer Unsealer
}

// Source reads the provisioning object through a storage.Storage.
type Source struct {
	storage storage.Storage
	cfg     Config
}

// New constructs a Source, filling unset limits with defaults.
func New(stg storage.Storage, cfg Config) *Source {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}

	return &Source{storage: stg, cfg: cfg}
}

// Open fetches the whole object into memory and returns a reader over the
// plaintext. Closing the reader zeroes the buffer.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	data, err := s.fetch(ctx)
	if err != nil {
		return nil, goerror.NewStorageUnavailable(err)
	}

	if s.cfg.Unsealer != nil {
		plain, err := s.cfg.Unsealer.Open(data)
		clear(data)
		if err != nil {
			return nil, goerror.NewFatal(err, "secrets file could not be unsealed", goerror.CodeInvalidConfig)
		}
		data = plain
	}

	return &wipingReader{Reader: bytes.NewReader(data), buf: data}, nil
}

func (s *Source) fetch(ctx context.Context) ([]byte, error) {
	b := retry.WithMaxRetries(s.cfg.MaxRetries, retry.NewExponential(s.cfg.Backoff))

	var (
		data []byte
		info storage.ObjectInfo
	)
	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		var err error
		data, info, err = s.fetchOnce(ctx)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, storage.ErrObjectNotFound), errors.Is(err, ErrTooLarge):
			return err
		default:
			slog.WarnContext(ctx, "failed to fetch secrets, retrying",
				"bucket", s.cfg.Bucket, "key", s.cfg.Key, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "secrets fetched",
		"bucket", s.cfg.Bucket, "key", s.cfg.Key, "bytes", len(data), "attempts", attempt,
		"etag", info.ETag, "updated_at", info.UpdatedAt)

	return data, nil
}

func (s *Source) fetchOnce(ctx context.Context) ([]byte, storage.ObjectInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	rc, info, err := s.storage.GetObject(ctx, s.cfg.Bucket, s.cfg.Key)
	if err != nil {
		return nil, info, err
	}
	defer func() {
		if err := rc.Close(); err != nil {
			slog.WarnContext(ctx, "failed to close object reader", "error", err)
		}
	}()

	if info.Size > s.cfg.MaxBytes {
		return nil, info, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, info.Size, s.cfg.MaxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(rc, s.cfg.MaxBytes+1))
	if err != nil {
		clear(data)
		return nil, info, err
	}
	if int64(len(data)) > s.cfg.MaxBytes {
		clear(data)
		return nil, info, fmt.Errorf("%w: limit %d", ErrTooLarge, s.cfg.MaxBytes)
	}

	return data, info, nil
}

type wipingReader struct {
	*bytes.Reader
	buf []byte
}

func (w *wipingReader) Close() error {
	clear(w.buf)
	w.Reader.Reset(nil)
	return nil
}
