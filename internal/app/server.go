package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// Start launches the scheduler loop and, when enabled, the display server.
// The returned channel is closed on a termination signal or when a loop
// fails; Stop reports which.
func (a *App) Start() <-chan struct{} {
	terminateChan := make(chan struct{})

	a.goroutine.Go("scheduler", a.authenticator.Run)

	if a.httpServer != nil {
		a.goroutine.Go("http", func(context.Context) error {
			slog.Info("http server listening", "address", a.httpServer.Addr)

			if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				slog.Error("failed to listen and serve http server", "error", err)
				return err
			}
			return nil
		})
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(sigint)

		select {
		case <-sigint:
			slog.Info("application gracefully shutdown")
		case <-a.goroutine.Done():
			slog.Error("application stopping after failure", "error", a.goroutine.Cause())
		}

		close(terminateChan)
	}()

	return terminateChan
}

// Stop shuts down the server, waits for the loops and closes resources. It
// returns the error that made a loop fail, if any.
func (a *App) Stop(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
		}
	}

	slog.InfoContext(ctx, "waiting for all goroutine to finish")
	err := a.goroutine.Stop()
	if err != nil {
		slog.ErrorContext(ctx, "error from goroutines executions", "error", err)
	} else {
		slog.InfoContext(ctx, "all goroutines have finished successfully")
	}

	for _, closer := range a.closers {
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", closer.name, "error", err)
		}
	}

	return err
}
