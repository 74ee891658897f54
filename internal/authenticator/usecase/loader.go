package usecase

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"github.com/shandysiswandi/otpdeck/internal/authenticator/entity"
	"github.com/shandysiswandi/otpdeck/internal/pkg/base32"
	"github.com/shandysiswandi/otpdeck/internal/pkg/goerror"
	"github.com/shandysiswandi/otpdeck/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
)

// LoaderDependency wires a Loader.
type LoaderDependency struct {
	Registry   secretRegistry             `validate:"required"`
	Source     secretSource               `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
}

// Loader fills the registry from `service,base32secret` lines.
type Loader struct {
	registry secretRegistry
	source   secretSource
	ins      instrument.Instrumentation
	counters counters
}

// NewLoader constructs a Loader.
func NewLoader(dep LoaderDependency) *Loader {
	return &Loader{
		registry: dep.Registry,
		source:   dep.Source,
		ins:      dep.Instrument,
		counters: newCounters(dep.Instrument),
	}
}

// ParseLine splits a provisioning line at its first comma. Surrounding
// whitespace is trimmed from both halves and whitespace inside the secret is
// removed, so grouped forms like "JBSW Y3DP" are accepted.
func ParseLine(line string) (entity.ServiceID, string, error) {
	service, encoded, found := strings.Cut(line, ",")
	if !found {
		return "", "", fmt.Errorf("%w: no delimiter", entity.ErrMalformedLine)
	}

	service = strings.TrimSpace(service)
	if service == "" {
		return "", "", fmt.Errorf("%w: empty service", entity.ErrMalformedLine)
	}

	encoded = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, encoded)

	return entity.ServiceID(service), encoded, nil
}

// Provision opens the configured source and loads it.
func (l *Loader) Provision(ctx context.Context) (entity.LoadReport, error) {
	rc, err := l.source.Open(ctx)
	if err != nil {
		if goerror.IsFatal(err) {
			return entity.LoadReport{}, err
		}
		return entity.LoadReport{}, goerror.NewStorageUnavailable(err)
	}
	defer func() {
		if err := rc.Close(); err != nil {
			slog.WarnContext(ctx, "failed to close secrets source", "error", err)
		}
	}()

	return l.Load(ctx, rc)
}

// Load reads every line from r. A secret that fails to decode skips its line
// with a warning; only a read failure aborts the load.
func (l *Loader) Load(ctx context.Context, r io.Reader) (entity.LoadReport, error) {
	ctx, span := startSpan(ctx, l.ins, "Loader.Load")
	defer span.End()

	var report entity.LoadReport
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		report.Lines++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			report.Ignored++
			continue
		}

		id, encoded, err := ParseLine(line)
		if err != nil {
			slog.DebugContext(ctx, "ignoring provisioning line", "line", report.Lines, "reason", err)
			report.Ignored++
			continue
		}

		raw, err := base32.Decode(encoded)
		if err != nil {
			derr := goerror.NewRecoverable(err, "secret skipped", decodeCode(err))
			slog.WarnContext(ctx, "failed to decode secret, service skipped",
				"service", id, "line", report.Lines, "code", goerror.CodeOf(derr).String(), "error", derr)
			report.Skipped++
			continue
		}

		replaced := l.registry.Upsert(id, entity.NewSecret(raw))
		clear(raw)

		report.Loaded++
		if replaced {
			report.Replaced++
			slog.InfoContext(ctx, "secret replaced by a later line", "service", id, "line", report.Lines)
		}
	}

	add(ctx, l.counters.loaded, report.Loaded)
	add(ctx, l.counters.skipped, report.Skipped)
	span.SetAttributes(
		attribute.Int("lines", report.Lines),
		attribute.Int("loaded", report.Loaded),
		attribute.Int("skipped", report.Skipped),
	)

	if err := scanner.Err(); err != nil {
		span.RecordError(err)
		return report, goerror.NewStorageUnavailable(err)
	}

	slog.InfoContext(ctx, "secrets loaded",
		"services", l.registry.Len(),
		"lines", report.Lines,
		"loaded", report.Loaded,
		"replaced", report.Replaced,
		"skipped", report.Skipped,
		"ignored", report.Ignored,
	)

	return report, nil
}

func decodeCode(err error) goerror.Code {
	switch {
	case errors.Is(err, base32.ErrInvalidCharacter):
		return goerror.CodeInvalidCharacter
	case errors.Is(err, base32.ErrEmptyInput):
		return goerror.CodeEmptyInput
	default:
		return goerror.CodeInternal
	}
}
