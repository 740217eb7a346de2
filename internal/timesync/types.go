// Package timesync decides when the time base needs an external correction,
// performs it, and escalates to a radio reset when the link looks wedged.
package timesync

import "time"

// State is the controller's state machine position.
type State string

const (
	StateIdle      State = "IDLE"
	StateSyncing   State = "SYNCING"
	StateBackoff   State = "BACKOFF_WAIT"
	StateResetting State = "RESETTING"
)

// EventType names a controller outcome.
type EventType string

const (
	EventSynced     EventType = "SYNCED"
	EventSyncFailed EventType = "SYNC_FAILED"
	EventRadioReset EventType = "RADIO_RESET"
)

// Event is one outcome to be logged and published.
type Event struct {
	// Timestamp is the clock's own time (Unix seconds of the time base)
	// after the event took effect.
	Timestamp time.Time
	Type      EventType
	Source    string
	// Jump is the applied correction in seconds (SYNCED only).
	Jump int64
	// Failures is the consecutive failure count after the event.
	Failures int
	// Err is the transport error (SYNC_FAILED only).
	Err error
}

// Counts tracks outcomes since startup.
type Counts struct {
	Attempts  int
	Successes int
	Failures  int
	Resets    int
}

// Status is a point-in-time view of the controller.
type Status struct {
	State       State
	Failures    int
	LastAttempt time.Time // monotonic; zero = never
	LastSuccess time.Time // monotonic; zero = never
	Counts      Counts
}

// Config tunes the controller.
type Config struct {
	// Interval between successful corrections.
	Interval time.Duration
	// Threshold of consecutive failures that triggers a radio reset.
	Threshold int
	// Backoff after a failure below Threshold.
	Backoff time.Duration
	// FastRetry retries as soon as Backoff has elapsed while a failure
	// streak is active. When false a failed attempt waits a full Interval.
	FastRetry bool
}

// Defaults.
const (
	DefaultInterval  = time.Hour
	DefaultThreshold = 3
	DefaultBackoff   = 10 * time.Second
)

// DefaultConfig returns the stock controller settings.
func DefaultConfig() Config {
	return Config{
		Interval:  DefaultInterval,
		Threshold: DefaultThreshold,
		Backoff:   DefaultBackoff,
		FastRetry: true,
	}
}
