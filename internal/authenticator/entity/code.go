package entity

import (
	"slices"
	"time"

	"github.com/samber/lo"
)

// Code is the one-time password published for a service during one time step.
type Code struct {
	Service ServiceID
	Value   string
	Step    uint64
}

// CodeSet is the complete result of one regeneration pass. Services whose code
// could not be computed are listed in Failed instead of Codes. Digits is the
// width of every code in the set.
type CodeSet struct {
	Step        uint64
	GeneratedAt time.Time
	Digits      int
	Codes       map[ServiceID]Code
	Failed      []ServiceID
}

// NewCodeSet returns an empty set for step.
func NewCodeSet(step uint64, at time.Time) CodeSet {
	return CodeSet{
		Step:        step,
		GeneratedAt: at,
		Codes:       make(map[ServiceID]Code),
	}
}

// Len returns the number of services with a code.
func (c CodeSet) Len() int {
	return len(c.Codes)
}

// Get returns the code for id.
func (c CodeSet) Get(id ServiceID) (Code, bool) {
	code, ok := c.Codes[id]
	return code, ok
}

// Services returns the ids with a code, sorted.
func (c CodeSet) Services() []ServiceID {
	ids := lo.Keys(c.Codes)
	slices.Sort(ids)
	return ids
}

// Countdown is the per-second presentation state.
type Countdown struct {
	Step      uint64
	Remaining int
	Period    int
}

// Tick is what one scheduler poll produced. Regenerated and SecondTick are
// independent: either, both, or neither may be set.
type Tick struct {
	Regenerated bool
	Codes       CodeSet
	SecondTick  bool
	Countdown   Countdown
}

// LoadReport summarises a secrets load.
type LoadReport struct {
	Lines    int
	Loaded   int
	Replaced int
	Skipped  int
	Ignored  int
}
