package inbound_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/otpdeck/internal/authenticator/entity"
	"github.com/shandysiswandi/otpdeck/internal/authenticator/inbound"
	"github.com/shandysiswandi/otpdeck/internal/pkg/instrument"
	"github.com/shandysiswandi/otpdeck/internal/pkg/router"
)

func sampleSet() entity.CodeSet {
	set := entity.NewCodeSet(1, time.Unix(45, 0))
	set.Digits = 6
	set.Codes["github"] = entity.Code{Service: "github", Value: "287082", Step: 1}
	set.Codes["aws"] = entity.Code{Service: "aws", Value: "755224", Step: 1}
	set.Failed = []entity.ServiceID{"broken"}
	return set
}

type recordingPresenter struct {
	calls []string
}

func (r *recordingPresenter) PresentCodes(_ context.Context, set entity.CodeSet) {
	r.calls = append(r.calls, "codes")
}

func (r *recordingPresenter) PresentCountdown(_ context.Context, cd entity.Countdown) {
	r.calls = append(r.calls, "countdown")
}

func TestPresent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tick entity.Tick
		want []string
	}{
		{name: "both", tick: entity.Tick{Regenerated: true, SecondTick: true}, want: []string{"codes", "countdown"}},
		{name: "countdown only", tick: entity.Tick{SecondTick: true}, want: []string{"countdown"}},
		{name: "neither", tick: entity.Tick{}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a, b := &recordingPresenter{}, &recordingPresenter{}

			inbound.Present(context.Background(), inbound.Fanout{a, b}, tt.tick)

			assert.Equal(t, tt.want, a.calls)
			assert.Equal(t, tt.want, b.calls)
		})
	}
}

func TestTerminal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	term := inbound.NewTerminal(&buf)

	term.PresentCodes(context.Background(), sampleSet())
	term.PresentCountdown(context.Background(), entity.Countdown{Step: 1, Remaining: 15, Period: 30})

	out := buf.String()
	assert.Contains(t, out, "codes for step 1 (00:00:45)")
	assert.Less(t, strings.Index(out, "aws"), strings.Index(out, "github"))
	assert.Contains(t, out, "755 224")
	assert.Contains(t, out, "287 082")
	assert.Regexp(t, `broken\s+unavailable`, out)
	assert.Contains(t, out, "\r["+strings.Repeat("#", 15)+strings.Repeat(".", 15)+"] 15s")
}

func TestTerminal_NoServices(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	inbound.NewTerminal(&buf).PresentCodes(context.Background(), entity.NewCodeSet(3, time.Unix(90, 0)))

	assert.Contains(t, buf.String(), "no services enrolled")
}

func TestHTTPDisplay(t *testing.T) {
	t.Parallel()

	display := inbound.NewHTTPDisplay()
	r := router.NewRouter(router.Config{Instrument: instrument.NewNoop()})
	inbound.RegisterHTTPEndpoint(r, display)

	get := func(path string) (int, map[string]any) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return rec.Code, body
	}

	// Before the first pass.
	status, body := get("/api/v1/codes")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "ERROR_CODE_NOT_READY", body["code"])

	status, body = get("/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"status": "ok", "ready": false}, body["data"])

	// After the first pass.
	display.PresentCodes(context.Background(), sampleSet())
	display.PresentCountdown(context.Background(), entity.Countdown{Step: 1, Remaining: 15, Period: 30})

	status, body = get("/api/v1/codes")
	require.Equal(t, http.StatusOK, status)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), data["step"])
	assert.Equal(t, float64(15), data["remaining_seconds"])
	assert.Equal(t, float64(30), data["period_seconds"])
	assert.Equal(t, float64(6), data["digits"])
	assert.Equal(t, []any{
		map[string]any{"service": "aws", "code": "755224"},
		map[string]any{"service": "github", "code": "287082"},
	}, data["codes"])
	assert.Equal(t, []any{"broken"}, data["unavailable"])

	_, body = get("/health")
	assert.Equal(t, map[string]any{"status": "ok", "ready": true}, body["data"])
}
