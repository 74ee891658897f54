package router

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/shandysiswandi/otpdeck/internal/pkg/stacktrace"
)

// middlewareRecoverer answers a handler panic with a 500.
// http.ErrAbortHandler is re-raised for net/http to handle.
func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if err, ok := rvr.(error); ok && err == http.ErrAbortHandler { //nolint:errorlint // sentinel identity
				panic(rvr)
			}

			slog.ErrorContext(r.Context(), "handler panicked", "because", rvr, panicStack())
			writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}

// panicStack prefers the module's own frames and falls back to the full
// goroutine stack when none are found.
func panicStack() slog.Attr {
	if frames := stacktrace.InternalPaths(3); len(frames) > 0 {
		return slog.Any("stack", frames)
	}
	return slog.String("stack", string(debug.Stack()))
}
