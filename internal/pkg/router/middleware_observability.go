package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/otpdeck/internal/pkg/goerror"
	"github.com/shandysiswandi/otpdeck/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Metric names recorded for every display request.
const (
	MetricRequests = "otpdeck.display.requests"
	MetricDuration = "otpdeck.display.duration"
)

// responseMeta records what was sent without keeping the body, which holds
// live codes.
type responseMeta struct {
	http.ResponseWriter
	status int
	size   int
	err    error
}

func (m *responseMeta) WriteHeader(code int) {
	if m.status == 0 {
		m.status = code
	}
	m.ResponseWriter.WriteHeader(code)
}

func (m *responseMeta) Write(p []byte) (int, error) {
	if m.status == 0 {
		m.status = http.StatusOK
	}
	n, err := m.ResponseWriter.Write(p)
	m.size += n
	return n, err
}

// SetError is called by GET handlers so the span sees the handler's error.
func (m *responseMeta) SetError(err error) { m.err = err }

func (m *responseMeta) Unwrap() http.ResponseWriter { return m.ResponseWriter }

func (m *responseMeta) statusCode() int {
	if m.status == 0 {
		return http.StatusOK
	}
	return m.status
}

func (m *responseMeta) attrs(method, route string) []attribute.KeyValue {
	kv := []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(method),
		semconv.HTTPRouteKey.String(route),
		semconv.HTTPResponseStatusCodeKey.Int(m.statusCode()),
	}
	if m.err != nil {
		kv = append(kv, attribute.String("error.code", goerror.CodeOf(m.err).String()))
	}
	return kv
}

type displayMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newDisplayMetrics(meter metric.Meter) displayMetrics {
	var m displayMetrics
	var err error

	m.requests, err = meter.Int64Counter(MetricRequests, metric.WithDescription("Display requests served"))
	if err != nil {
		slog.Error("failed to create display request counter", "error", err)
	}
	m.duration, err = meter.Float64Histogram(MetricDuration, metric.WithUnit("s"), metric.WithDescription("Display request latency"))
	if err != nil {
		slog.Error("failed to create display duration histogram", "error", err)
	}
	return m
}

func (m displayMetrics) record(ctx context.Context, elapsed time.Duration, attrs []attribute.KeyValue) {
	opt := metric.WithAttributes(attrs...)
	if m.requests != nil {
		m.requests.Add(ctx, 1, opt)
	}
	if m.duration != nil {
		m.duration.Record(ctx, elapsed.Seconds(), opt)
	}
}

func routeOf(r *http.Request) string {
	if p := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); p != "" {
		return p
	}
	return r.URL.Path
}

func middlewareObservability(ins instrument.Instrumentation) Middleware {
	tracer := ins.Tracer("otpdeck.display")
	metrics := newDisplayMetrics(ins.Meter("otpdeck.display"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := routeOf(r)

			ctx, span := tracer.Start(r.Context(), r.Method+" "+route, trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()

			meta := &responseMeta{ResponseWriter: w}
			next.ServeHTTP(meta, r.WithContext(ctx))

			attrs := meta.attrs(r.Method, route)
			span.SetAttributes(attrs...)
			if meta.err != nil {
				span.RecordError(meta.err)
			}
			if status := meta.statusCode(); status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			} else {
				span.SetStatus(codes.Ok, "")
			}

			elapsed := time.Since(start)
			metrics.record(ctx, elapsed, attrs)

			slog.DebugContext(ctx, "response sent",
				"method", r.Method,
				"route", route,
				"status", meta.statusCode(),
				"bytes", meta.size,
				"elapsed", elapsed,
			)
		})
	}
}
