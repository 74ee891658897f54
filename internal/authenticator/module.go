// Package authenticator wires the secret registry, the code scheduler and its
// presenters into one runnable unit.
package authenticator

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpdeck/internal/authenticator/entity"
	"github.com/shandysiswandi/otpdeck/internal/authenticator/inbound"
	"github.com/shandysiswandi/otpdeck/internal/authenticator/outbound/source"
	"github.com/shandysiswandi/otpdeck/internal/authenticator/registry"
	"github.com/shandysiswandi/otpdeck/internal/authenticator/usecase"
	"github.com/shandysiswandi/otpdeck/internal/pkg/clock"
	"github.com/shandysiswandi/otpdeck/internal/pkg/instrument"
	"github.com/shandysiswandi/otpdeck/internal/pkg/otp"
	"github.com/shandysiswandi/otpdeck/internal/pkg/router"
	"github.com/shandysiswandi/otpdeck/internal/pkg/storage"
	"github.com/shandysiswandi/otpdeck/internal/pkg/validator"
)

const defaultPollInterval = 100 * time.Millisecond

type Dependency struct {
	Storage    storage.Storage            `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Engine     otp.Engine                 `validate:"required"`
	Validator  validator.Validator        `validate:"required"`

	// Router, when set, gets the read-only display endpoints.
	Router *router.Router
	// Terminal, when set, receives the code table and countdown line.
	Terminal io.Writer

	Source       source.Config
	NotBefore    time.Time
	PollInterval time.Duration
}

// Module is the running authenticator.
type Module struct {
	loader    *usecase.Loader
	scheduler *usecase.Scheduler
	presenter inbound.Presenter
	clock     clock.Clocker
	interval  time.Duration
}

func New(dep Dependency) (*Module, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	reg := registry.New()
	src := source.New(dep.Storage, dep.Source)

	var presenters inbound.Fanout
	if dep.Terminal != nil {
		presenters = append(presenters, inbound.NewTerminal(dep.Terminal))
	}
	if dep.Router != nil {
		display := inbound.NewHTTPDisplay()
		inbound.RegisterHTTPEndpoint(dep.Router, display)
		presenters = append(presenters, display)
	}

	interval := dep.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	return &Module{
		loader: usecase.NewLoader(usecase.LoaderDependency{
			Registry:   reg,
			Source:     src,
			Instrument: dep.Instrument,
		}),
		scheduler: usecase.NewScheduler(usecase.SchedulerDependency{
			Registry:   reg,
			Engine:     dep.Engine,
			Instrument: dep.Instrument,
			NotBefore:  dep.NotBefore,
		}),
		presenter: presenters,
		clock:     dep.Clock,
		interval:  interval,
	}, nil
}

// Provision fills the registry from the secrets source. It must complete
// before Run; every error it returns is fatal.
func (m *Module) Provision(ctx context.Context) (entity.LoadReport, error) {
	return m.loader.Provision(ctx)
}

// Codes returns the most recently published code set.
func (m *Module) Codes() entity.CodeSet {
	return m.scheduler.Codes()
}

// Run polls the scheduler until ctx ends or a tick fails. The first poll
// happens immediately so codes are on display before the first interval.
func (m *Module) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "scheduler started", "poll_interval", m.interval.String())

	for {
		if err := m.poll(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (m *Module) poll(ctx context.Context) error {
	tick, err := m.scheduler.Tick(ctx, m.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "scheduler stopped", "error", err)
		return err
	}

	inbound.Present(ctx, m.presenter, tick)

	return nil
}
