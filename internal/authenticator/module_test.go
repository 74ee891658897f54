package authenticator_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/otpdeck/internal/authenticator"
	"github.com/shandysiswandi/otpdeck/internal/authenticator/outbound/source"
	"github.com/shandysiswandi/otpdeck/internal/pkg/clock"
	"github.com/shandysiswandi/otpdeck/internal/pkg/goerror"
	"github.com/shandysiswandi/otpdeck/internal/pkg/instrument"
	"github.com/shandysiswandi/otpdeck/internal/pkg/otp"
	"github.com/shandysiswandi/otpdeck/internal/pkg/storage"
	"github.com/shandysiswandi/otpdeck/internal/pkg/validator"
)

// syncBuffer guards a bytes.Buffer written by the poll loop and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func newModule(t *testing.T, secrets string, c clock.Clocker, out *syncBuffer) *authenticator.Module {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secrets.txt"), []byte(secrets), 0o600))

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	m, err := authenticator.New(authenticator.Dependency{
		Storage:      storage.NewFile(),
		Instrument:   instrument.NewNoop(),
		Clock:        c,
		Engine:       otp.NewTOTP(otp.DefaultPeriod, otp.DefaultDigits, otp.DefaultAlgorithm),
		Validator:    v,
		Terminal:     out,
		Source:       source.Config{Bucket: dir, Key: "secrets.txt"},
		NotBefore:    clock.DefaultNotBefore,
		PollInterval: time.Millisecond,
	})
	require.NoError(t, err)
	return m
}

func TestModule_ProvisionAndRun(t *testing.T) {
	t.Parallel()

	// Arrange
	at := time.Unix(1_700_000_000, 0)
	out := &syncBuffer{}
	m := newModule(t, "github,GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ\nbad,!!\n", clock.NewManual(at), out)

	// Act
	report, err := m.Provision(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "github")
	}, time.Second, time.Millisecond)
	cancel()

	// Assert
	require.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 1, report.Loaded)
	assert.Equal(t, 1, report.Skipped)

	set := m.Codes()
	assert.Equal(t, uint64(at.Unix()/30), set.Step)
	code, ok := set.Get("github")
	require.True(t, ok)
	assert.Len(t, code.Value, 6)
}

// Not parallel: it swaps the process-wide slog logger.
func TestModule_LogsStayOffTheTerminal(t *testing.T) {
	// Arrange
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logs := &syncBuffer{}
	ins, err := instrument.New(context.Background(), &instrument.Config{
		ServiceName: "otpdeck",
		LogLevel:    "debug",
		LogOutput:   logs,
	})
	require.NoError(t, err)

	at := time.Unix(1_700_000_000, 0)
	term := &syncBuffer{}
	m := newModule(t, "github,GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ\nbad,!!\nno-comma\n", clock.NewManual(at), term)

	// Act
	_, err = m.Provision(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(term.String(), "\r[")
	}, time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	require.NoError(t, ins.Shutdown(context.Background()))

	// Assert
	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &record), "log line %q", line)
		assert.NotContains(t, line, "\r")
	}
	assert.Contains(t, logs.String(), `"service":"bad"`)

	assert.Contains(t, term.String(), "github")
	assert.NotContains(t, term.String(), `"severity"`)
	assert.NotContains(t, term.String(), "bad")
}

func TestModule_RunStopsOnUnsynchronizedClock(t *testing.T) {
	t.Parallel()

	m := newModule(t, "github,MFRGG===\n", clock.NewManual(time.Unix(5, 0)), &syncBuffer{})

	_, err := m.Provision(context.Background())
	require.NoError(t, err)

	err = m.Run(context.Background())

	require.ErrorIs(t, err, clock.ErrNotSynchronized)
	assert.True(t, goerror.IsFatal(err))
}

func TestModule_ProvisionMissingFile(t *testing.T) {
	t.Parallel()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	m, err := authenticator.New(authenticator.Dependency{
		Storage:    storage.NewFile(),
		Instrument: instrument.NewNoop(),
		Clock:      clock.New(),
		Engine:     otp.NewTOTP(0, 0, otp.DefaultAlgorithm),
		Validator:  v,
		Source:     source.Config{Bucket: t.TempDir(), Key: "absent.txt"},
	})
	require.NoError(t, err)

	_, err = m.Provision(context.Background())

	require.ErrorIs(t, err, storage.ErrObjectNotFound)
	assert.True(t, goerror.IsFatal(err))
}

func TestNew_ValidatesDependency(t *testing.T) {
	t.Parallel()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	_, err = authenticator.New(authenticator.Dependency{Validator: v})

	require.Error(t, err)
	var verr validator.V10ValidationError
	assert.True(t, errors.As(err, &verr))
}
