// Package goroutine supervises the long-running loops of the process.
package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/otpdeck/internal/pkg/stacktrace"
)

// ErrPanicked wraps a value recovered from a task.
var ErrPanicked = errors.New("goroutine: task panicked")

// Manager runs named tasks in goroutines and collects how they ended.
//
// The first task to return a non-nil error cancels the context shared by all
// tasks, so one failing loop brings the others down with it.
type Manager struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	errs   []error
	closed bool
}

// NewManager returns a Manager whose tasks run under a child of parent.
func NewManager(parent context.Context) *Manager {
	ctx, cancel := context.WithCancelCause(parent)
	return &Manager{ctx: ctx, cancel: cancel}
}

// Done is closed once any task fails or Stop is called.
func (g *Manager) Done() <-chan struct{} {
	return g.ctx.Done()
}

// Go starts f. Calls after Stop are dropped with a warning.
func (g *Manager) Go(name string, f func(ctx context.Context) error) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		slog.Warn("goroutine manager is closed, skipping task", "task", name)
		return
	}
	g.wg.Add(1)
	g.mu.Unlock()

	go func() {
		defer g.wg.Done()

		err := g.run(name, f)
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}

		g.mu.Lock()
		g.errs = append(g.errs, fmt.Errorf("%s: %w", name, err))
		g.mu.Unlock()
		g.cancel(err)
	}()
}

func (g *Manager) run(name string, f func(ctx context.Context) error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			paths := stacktrace.InternalPaths(2)
			if len(paths) == 0 {
				slog.ErrorContext(g.ctx, "panic occurred in goroutine", "task", name, "because", rvr, "stack", string(debug.Stack()))
			} else {
				slog.ErrorContext(g.ctx, "panic occurred in goroutine", "task", name, "because", rvr, "stack", paths)
			}
			err = fmt.Errorf("%w: %v", ErrPanicked, rvr)
		}
	}()

	return f(g.ctx)
}

// Cause returns the error that stopped the tasks, if any.
func (g *Manager) Cause() error {
	if err := context.Cause(g.ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Stop cancels every task and waits for them to return. It returns the joined
// task errors, ignoring cancellation.
func (g *Manager) Stop() error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	g.cancel(context.Canceled)
	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}
