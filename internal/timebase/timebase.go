// Package timebase holds the authoritative seconds counter of the clock.
package timebase

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sweeney/matrix-clock/internal/syncutil"
)

// TimeBase is a free-running seconds counter that is advanced once per
// scheduler tick and overwritten by external corrections.
// Writers are the scheduler's tick task and the sync controller; readers may
// be on any goroutine.
type TimeBase struct {
	mu             syncutil.RWMutex
	clock          clockwork.Clock
	counter        int64
	lastCorrection time.Time // monotonic; zero = never
}

// New creates a TimeBase starting at start (Unix seconds, UTC). The clock is
// only used to stamp corrections.
func New(clock clockwork.Clock, start int64) *TimeBase {
	return &TimeBase{clock: clock, counter: start}
}

// Tick advances the counter by exactly one second.
func (b *TimeBase) Tick() {
	b.mu.Lock()
	b.counter++
	b.mu.Unlock()
}

// Correct overwrites the counter with an absolute timestamp. Any value is
// accepted, including one in the past. It returns the applied jump
// (new - old) in seconds.
func (b *TimeBase) Correct(ts int64) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	jump := ts - b.counter
	b.counter = ts
	b.lastCorrection = b.clock.Now()
	return jump
}

// Now returns the current counter value.
func (b *TimeBase) Now() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.counter
}

// LastCorrection returns the monotonic instant of the last correction, or
// false if the counter was never corrected.
func (b *TimeBase) LastCorrection() (time.Time, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastCorrection, !b.lastCorrection.IsZero()
}

// StartValue picks the initial counter: the debug start if set, otherwise
// the wall clock.
func StartValue(debugStart *int64, wall time.Time) int64 {
	if debugStart != nil {
		return *debugStart
	}
	return wall.Unix()
}
