package inbound

import (
	"context"

	"github.com/shandysiswandi/otpdeck/internal/authenticator/entity"
)

// Presenter renders scheduler output. Implementations must not retain or
// mutate the Codes map beyond the call.
type Presenter interface {
	PresentCodes(ctx context.Context, set entity.CodeSet)
	PresentCountdown(ctx context.Context, cd entity.Countdown)
}

// Fanout forwards to every presenter in order.
type Fanout []Presenter

// PresentCodes implements Presenter.
func (f Fanout) PresentCodes(ctx context.Context, set entity.CodeSet) {
	for _, p := range f {
		p.PresentCodes(ctx, set)
	}
}

// PresentCountdown implements Presenter.
func (f Fanout) PresentCountdown(ctx context.Context, cd entity.Countdown) {
	for _, p := range f {
		p.PresentCountdown(ctx, cd)
	}
}

// Present hands one tick to p: codes first, then the countdown.
func Present(ctx context.Context, p Presenter, tick entity.Tick) {
	if tick.Regenerated {
		p.PresentCodes(ctx, tick.Codes)
	}
	if tick.SecondTick {
		p.PresentCountdown(ctx, tick.Countdown)
	}
}
