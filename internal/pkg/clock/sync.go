package clock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// DefaultNotBefore is the earliest reading treated as synchronized: one day
// after the epoch, which an unset real-time clock does not reach on its own.
var DefaultNotBefore = time.Unix(24*60*60, 0).UTC()

// ErrNotSynchronized indicates the wall clock has not been set from a time source.
var ErrNotSynchronized = errors.New("clock: wall clock not synchronized")

const syncPollInterval = 500 * time.Millisecond

// CheckSynchronized returns ErrNotSynchronized when at is earlier than notBefore.
func CheckSynchronized(at, notBefore time.Time) error {
	if at.Before(notBefore) {
		return fmt.Errorf("%w: read %s, want at or after %s",
			ErrNotSynchronized, at.UTC().Format(time.RFC3339), notBefore.UTC().Format(time.RFC3339))
	}

	return nil
}

// WaitSynchronized polls c until it reads at or after notBefore, or timeout elapses.
func WaitSynchronized(ctx context.Context, c Clocker, notBefore time.Time, timeout time.Duration) error {
	b := retry.NewConstant(syncPollInterval)
	if timeout > 0 {
		b = retry.WithMaxDuration(timeout, b)
	}

	attempt := 0
	err := retry.Do(ctx, b, func(_ context.Context) error {
		attempt++
		if err := CheckSynchronized(c.Now(), notBefore); err != nil {
			slog.DebugContext(ctx, "waiting for time to be set", "attempt", attempt)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "wall clock synchronized", "now", c.Now().UTC().Format(time.RFC3339), "attempts", attempt)

	return nil
}
