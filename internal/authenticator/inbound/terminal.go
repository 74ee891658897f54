package inbound

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/shandysiswandi/otpdeck/internal/authenticator/entity"
)

const barWidth = 30

// Terminal writes codes as an aligned table and the countdown as a single
// line that is rewritten in place.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminal returns a Terminal writing to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

// PresentCodes implements Presenter.
func (t *Terminal) PresentCodes(ctx context.Context, set entity.CodeSet) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "\n\ncodes for step %d (%s)\n", set.Step, set.GeneratedAt.UTC().Format(time.TimeOnly))

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, id := range set.Services() {
		code, _ := set.Get(id)
		fmt.Fprintf(tw, "  %s\t%s\n", id, groupDigits(code.Value))
	}
	for _, id := range set.Failed {
		fmt.Fprintf(tw, "  %s\t%s\n", id, "unavailable")
	}
	if err := tw.Flush(); err != nil {
		slog.WarnContext(ctx, "failed to format codes", "error", err)
		return
	}
	if set.Len() == 0 && len(set.Failed) == 0 {
		b.WriteString("  no services enrolled\n")
	}

	if _, err := io.WriteString(t.w, b.String()); err != nil {
		slog.WarnContext(ctx, "failed to write codes to terminal", "error", err)
	}
}

// PresentCountdown implements Presenter.
func (t *Terminal) PresentCountdown(ctx context.Context, cd entity.Countdown) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := fmt.Fprintf(t.w, "\r[%s] %2ds", bar(cd.Remaining, cd.Period), cd.Remaining); err != nil {
		slog.WarnContext(ctx, "failed to write countdown to terminal", "error", err)
	}
}

func bar(remaining, period int) string {
	if period <= 0 {
		return strings.Repeat(" ", barWidth)
	}
	filled := min(max(remaining*barWidth/period, 0), barWidth)
	return strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled)
}

// groupDigits splits a code in two halves for reading aloud: "287 082".
func groupDigits(code string) string {
	if len(code) < 6 {
		return code
	}
	half := len(code) / 2
	return code[:half] + " " + code[half:]
}
