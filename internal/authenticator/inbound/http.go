package inbound

import (
	"context"
	"net/http"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpdeck/internal/authenticator/entity"
	"github.com/shandysiswandi/otpdeck/internal/pkg/goerror"
	"github.com/shandysiswandi/otpdeck/internal/pkg/router"
	"go.uber.org/atomic"
)

// HTTPDisplay keeps the latest scheduler output for HTTP readers. The
// scheduler goroutine writes through Presenter; handlers read a snapshot.
type HTTPDisplay struct {
	codes     *atomic.Pointer[CodesResponse]
	countdown *atomic.Pointer[entity.Countdown]
}

// NewHTTPDisplay returns an empty display.
func NewHTTPDisplay() *HTTPDisplay {
	return &HTTPDisplay{
		codes:     atomic.NewPointer[CodesResponse](nil),
		countdown: atomic.NewPointer[entity.Countdown](nil),
	}
}

// RegisterHTTPEndpoint mounts the display routes on r.
func RegisterHTTPEndpoint(r *router.Router, d *HTTPDisplay) {
	r.GET("/health", d.Health)
	r.GET("/api/v1/codes", d.Codes)
}

// PresentCodes implements Presenter.
func (d *HTTPDisplay) PresentCodes(_ context.Context, set entity.CodeSet) {
	resp := &CodesResponse{
		Step:        set.Step,
		GeneratedAt: set.GeneratedAt.UTC(),
		Digits:      set.Digits,
		Codes: lo.Map(set.Services(), func(id entity.ServiceID, _ int) CodeResponse {
			code, _ := set.Get(id)
			return CodeResponse{Service: string(id), Code: code.Value}
		}),
		Unavailable: lo.Map(set.Failed, func(id entity.ServiceID, _ int) string {
			return string(id)
		}),
	}
	d.codes.Store(resp)
}

// PresentCountdown implements Presenter.
func (d *HTTPDisplay) PresentCountdown(_ context.Context, cd entity.Countdown) {
	d.countdown.Store(&cd)
}

// Health reports liveness and whether a code set is available.
func (d *HTTPDisplay) Health(*http.Request) (any, error) {
	return HealthResponse{Status: "ok", Ready: d.codes.Load() != nil}, nil
}

// Codes returns the current code set.
func (d *HTTPDisplay) Codes(*http.Request) (any, error) {
	snap := d.codes.Load()
	if snap == nil {
		return nil, goerror.NewRecoverable(nil, "codes not generated yet", goerror.CodeNotReady)
	}

	resp := *snap
	if cd := d.countdown.Load(); cd != nil && cd.Step == resp.Step {
		resp.PeriodSeconds = cd.Period
		resp.RemainingSeconds = cd.Remaining
	}

	return resp, nil
}
