package logic

import "time"

// Debouncer tracks a single push button and detects debounced presses.
type Debouncer struct {
	duration     time.Duration
	stable       State
	pending      State
	pendingSince time.Time
	baselined    bool
	presses      int
}

// NewDebouncer creates a debouncer that requires a level to hold for
// duration before it is accepted.
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{duration: duration}
}

// Process takes a new sample and reports whether it completed a press
// (a debounced RELEASED -> PRESSED transition). No press is reported until a
// baseline has been established, so a button held at startup is ignored.
func (d *Debouncer) Process(pressed bool, now time.Time) bool {
	state := StateReleased
	if pressed {
		state = StatePressed
	}

	// First time seeing this button
	if !d.baselined {
		if d.pending != state {
			d.pending = state
			d.pendingSince = now
			return false
		}
		if now.Sub(d.pendingSince) >= d.duration {
			d.stable = state
			d.baselined = true
			d.pending = ""
		}
		return false
	}

	if state == d.stable {
		d.pending = ""
		return false
	}

	if d.pending != state {
		d.pending = state
		d.pendingSince = now
		return false
	}

	if now.Sub(d.pendingSince) < d.duration {
		return false
	}

	d.stable = state
	d.pending = ""
	if state == StatePressed {
		d.presses++
		return true
	}
	return false
}

// IsBaselined returns whether a stable starting level has been seen.
func (d *Debouncer) IsBaselined() bool {
	return d.baselined
}

// State returns the current debounced state.
func (d *Debouncer) State() State {
	return d.stable
}

// Presses returns the number of presses detected since creation.
func (d *Debouncer) Presses() int {
	return d.presses
}
