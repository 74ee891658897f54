package instrument

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const masked = "***"

type (
	passKey          struct{}
	correlationIDKey struct{}
)

// WithCorrelationID tags ctx with the id of the HTTP request being served.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// GetCorrelationID returns the id set by WithCorrelationID.
func GetCorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// WithPass tags ctx with the time step of a regeneration pass so every log
// record written during the pass carries it.
func WithPass(ctx context.Context, step uint64) context.Context {
	return context.WithValue(ctx, passKey{}, step)
}

// GetPass returns the time step set by WithPass.
func GetPass(ctx context.Context) (uint64, bool) {
	step, ok := ctx.Value(passKey{}).(uint64)
	return step, ok
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func installLogger(cfg *Config, lp *sdklog.LoggerProvider) {
	slog.SetDefault(slog.New(newHandler(logOutput(cfg), cfg.ServiceName, lp, cfg.MaskFields, ParseLevel(cfg.LogLevel))))
}

func logOutput(cfg *Config) io.Writer {
	if cfg.LogOutput == nil {
		return os.Stderr
	}
	return cfg.LogOutput
}

// newHandler writes JSON to w and, when lp is set, also ships records
// through the otel bridge. Masking runs before either sink sees a record.
func newHandler(w io.Writer, serviceName string, lp *sdklog.LoggerProvider, maskFields []string, level slog.Level) slog.Handler {
	var sink slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		AddSource:   true,
		ReplaceAttr: renameAttr,
	})
	if lp != nil {
		sink = tee{sink, otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(lp))}
	}

	return &redactor{
		next:    sink,
		keys:    maskSet(maskFields),
		service: slog.String("service_name", serviceName),
	}
}

func renameAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		i := strings.Index(src.File, "/internal/")
		if i < 0 {
			return slog.Attr{}
		}
		return slog.String("file", src.File[i+1:]+":"+strconv.Itoa(src.Line))
	}
	return a
}

// redactor masks configured keys and stamps the pass and request context
// onto each record.
type redactor struct {
	next    slog.Handler
	keys    map[string]struct{}
	service slog.Attr
}

func (h *redactor) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactor) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.mask(a))
		return true
	})

	if step, ok := GetPass(ctx); ok {
		out.AddAttrs(slog.Uint64("time_step", step))
	}
	if cid := GetCorrelationID(ctx); cid != "" {
		out.AddAttrs(slog.String("correlation_id", cid))
	}
	out.AddAttrs(h.service)

	return h.next.Handle(ctx, out)
}

func (h *redactor) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = h.mask(a)
	}
	return &redactor{next: h.next.WithAttrs(clean), keys: h.keys, service: h.service}
}

func (h *redactor) WithGroup(name string) slog.Handler {
	return &redactor{next: h.next.WithGroup(name), keys: h.keys, service: h.service}
}

func (h *redactor) mask(a slog.Attr) slog.Attr {
	if len(h.keys) == 0 {
		return a
	}
	if _, hit := h.keys[strings.ToLower(a.Key)]; hit {
		return slog.String(a.Key, masked)
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		group := v.Group()
		inner := make([]slog.Attr, len(group))
		for i, ga := range group {
			inner[i] = h.mask(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(inner...)}
	case slog.KindAny:
		if m, ok := v.Any().(map[string]string); ok {
			out := make(map[string]string, len(m))
			for k, val := range m {
				if _, hit := h.keys[strings.ToLower(k)]; hit {
					val = masked
				}
				out[k] = val
			}
			return slog.Any(a.Key, out)
		}
	}
	return a
}

func maskSet(fields []string) map[string]struct{} {
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			set[f] = struct{}{}
		}
	}
	return set
}

// tee forwards each record to every enabled handler.
type tee []slog.Handler

func (t tee) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t tee) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t tee) WithGroup(name string) slog.Handler {
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}
