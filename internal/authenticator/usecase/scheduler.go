package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpdeck/internal/authenticator/entity"
	"github.com/shandysiswandi/otpdeck/internal/pkg/clock"
	"github.com/shandysiswandi/otpdeck/internal/pkg/goerror"
	"github.com/shandysiswandi/otpdeck/internal/pkg/instrument"
	"github.com/shandysiswandi/otpdeck/internal/pkg/otp"
	"go.opentelemetry.io/otel/attribute"
)

// SchedulerDependency wires a Scheduler.
type SchedulerDependency struct {
	Registry   secretRegistry             `validate:"required"`
	Engine     otp.Engine                 `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`

	// NotBefore is the earliest wall-clock reading treated as synchronized.
	// The zero value accepts any reading.
	NotBefore time.Time
}

// Scheduler regenerates the code set once per time step and reports
// second boundaries for countdown rendering. It is driven by a single
// polling goroutine and is not safe for concurrent use.
type Scheduler struct {
	registry  secretRegistry
	engine    otp.Engine
	ins       instrument.Instrumentation
	counters  counters
	notBefore time.Time

	started    bool
	nextDue    uint64
	secondSeen bool
	lastSecond int64
	published  entity.CodeSet
}

// NewScheduler constructs a Scheduler.
func NewScheduler(dep SchedulerDependency) *Scheduler {
	return &Scheduler{
		registry:  dep.Registry,
		engine:    dep.Engine,
		ins:       dep.Instrument,
		counters:  newCounters(dep.Instrument),
		notBefore: dep.NotBefore,
	}
}

// Tick evaluates both triggers against now. The first tick always
// regenerates. A reading before NotBefore returns a fatal error and leaves
// the scheduler state untouched.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) (entity.Tick, error) {
	if err := clock.CheckSynchronized(now, s.notBefore); err != nil {
		return entity.Tick{}, goerror.NewClockUnsynchronized(err)
	}

	step := s.engine.Step(now)
	var tick entity.Tick

	if s.periodDue(step) {
		tick.Regenerated = true
		tick.Codes = s.regenerate(ctx, step, now)
		s.nextDue = step + 1
		s.started = true
	}

	if sec := now.Unix(); s.secondBoundary(sec) {
		s.secondSeen = true
		s.lastSecond = sec
		tick.SecondTick = true
		tick.Countdown = entity.Countdown{
			Step:      step,
			Remaining: s.engine.Remaining(now),
			Period:    int(s.engine.Period()),
		}
	}

	return tick, nil
}

// Codes returns the most recently published set. The zero CodeSet is
// returned before the first regeneration.
func (s *Scheduler) Codes() entity.CodeSet {
	return s.published
}

// periodDue reports whether step has reached the next due step. A clock
// stepped backwards is not due: the published set stays until the clock
// catches up with it.
func (s *Scheduler) periodDue(step uint64) bool {
	return !s.started || step >= s.nextDue
}

func (s *Scheduler) secondBoundary(sec int64) bool {
	return !s.secondSeen || sec != s.lastSecond
}

func (s *Scheduler) regenerate(ctx context.Context, step uint64, now time.Time) entity.CodeSet {
	ctx, span := startSpan(ctx, s.ins, "Scheduler.Tick")
	defer span.End()

	ctx = instrument.WithPass(ctx, step)
	set := entity.NewCodeSet(step, now)
	set.Digits = s.engine.Digits()

	for id, secret := range s.registry.All() {
		var value string
		err := secret.Use(func(key []byte) error {
			var err error
			value, err = s.engine.Compute(key, step)
			return err
		})
		if err != nil {
			cerr := goerror.NewRecoverable(err, "code omitted", computeCode(err))
			slog.WarnContext(ctx, "failed to compute code, service omitted from this pass",
				"service", id, "code", goerror.CodeOf(cerr).String(), "error", cerr)
			set.Failed = append(set.Failed, id)
			continue
		}

		set.Codes[id] = entity.Code{Service: id, Value: value, Step: step}
	}

	s.published = set

	add(ctx, s.counters.regenerations, 1)
	add(ctx, s.counters.failed, len(set.Failed))
	span.SetAttributes(
		attribute.Int64("time_step", int64(step)),
		attribute.Int("codes", set.Len()),
		attribute.Int("failed", len(set.Failed)),
	)

	slog.DebugContext(ctx, "codes regenerated", "codes", set.Len(), "failed", len(set.Failed))

	return set
}

func computeCode(err error) goerror.Code {
	if errors.Is(err, otp.ErrEmptySecret) {
		return goerror.CodeEmptySecret
	}
	return goerror.CodeInternal
}
