package source_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/otpdeck/internal/authenticator/outbound/source"
	"github.com/shandysiswandi/otpdeck/internal/pkg/goerror"
	"github.com/shandysiswandi/otpdeck/internal/pkg/sealed"
	"github.com/shandysiswandi/otpdeck/internal/pkg/storage"
)

const sample = "github,JBSWY3DPEHPK3PXP\n"

type flakyStorage struct {
	failures int
	calls    int
	err      error
	body     []byte
}

func (f *flakyStorage) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, storage.ObjectInfo{}, f.err
	}
	return io.NopCloser(bytes.NewReader(f.body)), storage.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(f.body))}, nil
}

func (f *flakyStorage) StatObject(context.Context, string, string) (storage.ObjectInfo, error) {
	return storage.ObjectInfo{}, nil
}

func (f *flakyStorage) Close() error { return nil }

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	return string(data)
}

func TestSource_OpenFromFile(t *testing.T) {
	t.Parallel()

	// Arrange
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secrets.txt"), []byte(sample), 0o600))
	src := source.New(storage.NewFile(), source.Config{Bucket: dir, Key: "secrets.txt"})

	// Act
	rc, err := src.Open(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, sample, readAll(t, rc))
}

func TestSource_MissingObjectIsFatalWithoutRetry(t *testing.T) {
	t.Parallel()

	stg := &flakyStorage{failures: 10, err: storage.ErrObjectNotFound}
	src := source.New(stg, source.Config{Bucket: "b", Key: "k", MaxRetries: 3, Backoff: time.Millisecond})

	_, err := src.Open(context.Background())

	require.ErrorIs(t, err, storage.ErrObjectNotFound)
	assert.True(t, goerror.IsFatal(err))
	assert.Equal(t, goerror.CodeStorageUnavailable, goerror.CodeOf(err))
	assert.Equal(t, 1, stg.calls)
}

func TestSource_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	errNet := errors.New("connection reset")

	t.Run("recovers", func(t *testing.T) {
		t.Parallel()

		stg := &flakyStorage{failures: 2, err: errNet, body: []byte(sample)}
		src := source.New(stg, source.Config{Bucket: "b", Key: "k", MaxRetries: 3, Backoff: time.Millisecond})

		rc, err := src.Open(context.Background())

		require.NoError(t, err)
		assert.Equal(t, sample, readAll(t, rc))
		assert.Equal(t, 3, stg.calls)
	})

	t.Run("gives up", func(t *testing.T) {
		t.Parallel()

		stg := &flakyStorage{failures: 10, err: errNet}
		src := source.New(stg, source.Config{Bucket: "b", Key: "k", MaxRetries: 2, Backoff: time.Millisecond})

		_, err := src.Open(context.Background())

		require.ErrorIs(t, err, errNet)
		assert.True(t, goerror.IsFatal(err))
		assert.Equal(t, 3, stg.calls)
	})
}

func TestSource_TooLarge(t *testing.T) {
	t.Parallel()

	stg := &flakyStorage{body: bytes.Repeat([]byte("a"), 64)}
	src := source.New(stg, source.Config{Bucket: "b", Key: "k", MaxBytes: 16, MaxRetries: 3, Backoff: time.Millisecond})

	_, err := src.Open(context.Background())

	require.ErrorIs(t, err, source.ErrTooLarge)
	assert.Equal(t, 1, stg.calls)
}

func TestSource_Unseal(t *testing.T) {
	t.Parallel()

	key := bytes.Repeat([]byte{7}, 32)
	box, err := sealed.New(key)
	require.NoError(t, err)
	envelope, err := box.Seal([]byte(sample))
	require.NoError(t, err)

	t.Run("right key", func(t *testing.T) {
		t.Parallel()

		src := source.New(&flakyStorage{body: envelope}, source.Config{Bucket: "b", Key: "k", Unsealer: box})

		rc, err := src.Open(context.Background())

		require.NoError(t, err)
		assert.Equal(t, sample, readAll(t, rc))
	})

	t.Run("wrong key", func(t *testing.T) {
		t.Parallel()

		other, err := sealed.New(bytes.Repeat([]byte{9}, 32))
		require.NoError(t, err)
		src := source.New(&flakyStorage{body: envelope}, source.Config{Bucket: "b", Key: "k", Unsealer: other})

		_, err = src.Open(context.Background())

		require.ErrorIs(t, err, sealed.ErrOpenFailed)
		assert.True(t, goerror.IsFatal(err))
		assert.Equal(t, goerror.CodeInvalidConfig, goerror.CodeOf(err))
	})
}
