//go:build integration

package storage_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shandysiswandi/otpdeck/internal/pkg/storage"
)

const (
	minioImage    = "minio/minio:RELEASE.2025-04-22T22-12-26Z"
	minioUser     = "otpdeck"
	minioPassword = "otpdeck-secret"
	testBucket    = "provisioning"
	testKey       = "secrets.txt"
	testBody      = "github,JBSWY3DPEHPK3PXP\n"
)

// startMinIO runs a MinIO server holding one provisioning object and returns
// its host:port.
func startMinIO(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        minioImage,
			ExposedPorts: []string{"9000/tcp"},
			Cmd:          []string{"server", "/data"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     minioUser,
				"MINIO_ROOT_PASSWORD": minioPassword,
			},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	endpoint, err := ctr.PortEndpoint(ctx, "9000/tcp", "")
	require.NoError(t, err)

	client, err := minio.New(endpoint, &minio.Options{Creds: credentials.NewStaticV4(minioUser, minioPassword, "")})
	require.NoError(t, err)
	require.NoError(t, client.MakeBucket(ctx, testBucket, minio.MakeBucketOptions{}))
	_, err = client.PutObject(ctx, testBucket, testKey, bytes.NewReader([]byte(testBody)), int64(len(testBody)), minio.PutObjectOptions{})
	require.NoError(t, err)

	return endpoint
}

func TestObjectStorage_Integration(t *testing.T) {
	endpoint := startMinIO(t)
	ctx := context.Background()

	drivers := map[string]storage.FactoryOptions{
		storage.DriverMinIO: {MinIO: storage.MinIOOptions{
			Endpoint:  endpoint,
			AccessKey: minioUser,
			SecretKey: minioPassword,
		}},
		storage.DriverS3: {S3: storage.S3Options{
			Endpoint:     "http://" + endpoint,
			AccessKey:    minioUser,
			SecretKey:    minioPassword,
			UsePathStyle: true,
		}},
	}

	for driver, opts := range drivers {
		t.Run(driver, func(t *testing.T) {
			stg, err := storage.NewFromDriver(ctx, driver, opts)
			require.NoError(t, err)
			t.Cleanup(func() { assert.NoError(t, stg.Close()) })

			rc, info, err := stg.GetObject(ctx, testBucket, testKey)
			require.NoError(t, err)
			body, err := io.ReadAll(rc)
			require.NoError(t, err)
			require.NoError(t, rc.Close())
			assert.Equal(t, testBody, string(body))
			assert.Equal(t, int64(len(testBody)), info.Size)

			stat, err := stg.StatObject(ctx, testBucket, testKey)
			require.NoError(t, err)
			assert.Equal(t, int64(len(testBody)), stat.Size)

			_, _, err = stg.GetObject(ctx, testBucket, "absent.txt")
			require.ErrorIs(t, err, storage.ErrObjectNotFound)

			_, err = stg.StatObject(ctx, "no-such-bucket", testKey)
			require.ErrorIs(t, err, storage.ErrObjectNotFound)
		})
	}
}
