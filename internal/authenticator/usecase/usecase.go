package usecase

import (
	"context"
	"io"
	"iter"
	"log/slog"

	"github.com/shandysiswandi/otpdeck/internal/authenticator/entity"
	"github.com/shandysiswandi/otpdeck/internal/pkg/instrument"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentName = "authenticator.usecase"

type secretRegistry interface {
	Upsert(id entity.ServiceID, secret entity.Secret) bool
	All() iter.Seq2[entity.ServiceID, entity.Secret]
	Len() int
}

type secretSource interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

type counters struct {
	loaded        metric.Int64Counter
	skipped       metric.Int64Counter
	regenerations metric.Int64Counter
	failed        metric.Int64Counter
}

func newCounters(ins instrument.Instrumentation) counters {
	meter := ins.Meter(instrumentName)

	var c counters
	var err error

	c.loaded, err = meter.Int64Counter("otpdeck.secrets.loaded", metric.WithDescription("Secrets decoded and stored in the registry"))
	if err != nil {
		slog.Error("failed to create secrets loaded counter", "error", err)
	}

	c.skipped, err = meter.Int64Counter("otpdeck.secrets.skipped", metric.WithDescription("Provisioning lines skipped because the secret did not decode"))
	if err != nil {
		slog.Error("failed to create secrets skipped counter", "error", err)
	}

	c.regenerations, err = meter.Int64Counter("otpdeck.regenerations", metric.WithDescription("Completed regeneration passes"))
	if err != nil {
		slog.Error("failed to create regenerations counter", "error", err)
	}

	c.failed, err = meter.Int64Counter("otpdeck.codes.failed", metric.WithDescription("Codes omitted from a pass because computation failed"))
	if err != nil {
		slog.Error("failed to create codes failed counter", "error", err)
	}

	return c
}

func add(ctx context.Context, c metric.Int64Counter, n int) {
	if c != nil && n > 0 {
		c.Add(ctx, int64(n))
	}
}

func startSpan(ctx context.Context, ins instrument.Instrumentation, name string) (context.Context, trace.Span) {
	return ins.Tracer(instrumentName).Start(ctx, name)
}
