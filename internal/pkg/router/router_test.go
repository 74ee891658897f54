package router_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/otpdeck/internal/pkg/goerror"
	"github.com/shandysiswandi/otpdeck/internal/pkg/instrument"
	"github.com/shandysiswandi/otpdeck/internal/pkg/router"
)

type staticID string

func (s staticID) Generate() string { return string(s) }

func newRouter() *router.Router {
	r := router.NewRouter(router.Config{UUID: staticID("cid-1"), Instrument: instrument.NewNoop()})
	r.GET("/ok", func(*http.Request) (any, error) {
		return map[string]int{"answer": 42}, nil
	})
	r.GET("/not-ready", func(*http.Request) (any, error) {
		return nil, goerror.NewRecoverable(nil, "codes not generated yet", goerror.CodeNotReady)
	})
	r.GET("/plain-error", func(*http.Request) (any, error) {
		return nil, errors.New("boom")
	})
	r.GET("/panic", func(*http.Request) (any, error) {
		panic("unexpected")
	})
	return r
}

func TestRouter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		method     string
		wantStatus int
		wantBody   map[string]any
	}{
		{
			name:       "success envelope",
			path:       "/ok",
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
			wantBody:   map[string]any{"message": "ok", "data": map[string]any{"answer": float64(42)}},
		},
		{
			name:       "classified error",
			path:       "/not-ready",
			method:     http.MethodGet,
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]any{"message": "codes not generated yet", "code": "ERROR_CODE_NOT_READY"},
		},
		{
			name:       "unclassified error",
			path:       "/plain-error",
			method:     http.MethodGet,
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]any{"message": "Internal server error"},
		},
		{
			name:       "panic is recovered",
			path:       "/panic",
			method:     http.MethodGet,
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]any{"message": "Internal server error"},
		},
		{
			name:       "unknown route",
			path:       "/missing",
			method:     http.MethodGet,
			wantStatus: http.StatusNotFound,
			wantBody:   map[string]any{"message": "endpoint not found"},
		},
		{
			name:       "wrong method",
			path:       "/ok",
			method:     http.MethodPost,
			wantStatus: http.StatusMethodNotAllowed,
			wantBody:   map[string]any{"message": "method not allowed"},
		},
	}

	r := newRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()

			// Act
			r.ServeHTTP(rec, req)

			// Assert
			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestRouter_CorrelationID(t *testing.T) {
	t.Parallel()

	r := newRouter()

	t.Run("generated", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))

		assert.Equal(t, "cid-1", rec.Header().Get(router.HeaderCorrelationID))
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	})

	t.Run("propagated", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.Header.Set(router.HeaderRequestID, "from-proxy")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, "from-proxy", rec.Header().Get(router.HeaderCorrelationID))
	})
}

func TestRouter_ClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		remote string
		header string
		want   string
	}{
		{name: "proxy on loopback", remote: "127.0.0.1:5000", header: "203.0.113.7, 10.0.0.1", want: "203.0.113.7"},
		{name: "untrusted peer", remote: "198.51.100.2:5000", header: "203.0.113.7", want: "198.51.100.2:5000"},
		{name: "garbage header", remote: "127.0.0.1:5000", header: "not-an-ip", want: "127.0.0.1:5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got string
			r := router.NewRouter(router.Config{Instrument: instrument.NewNoop()})
			r.GET("/ip", func(req *http.Request) (any, error) {
				got = req.RemoteAddr
				return nil, nil
			})

			req := httptest.NewRequest(http.MethodGet, "/ip", nil)
			req.RemoteAddr = tt.remote
			req.Header.Set("X-Forwarded-For", tt.header)
			r.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, got)
		})
	}
}
