// Package status provides a thread-safe view of the clock for the web page,
// heartbeats and metrics.
package status

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sweeney/matrix-clock/internal/logic"
	"github.com/sweeney/matrix-clock/internal/syncutil"
	"github.com/sweeney/matrix-clock/internal/timesync"
)

// Config contains settings shown on the status page.
type Config struct {
	SyncInterval time.Duration
	SyncCheck    time.Duration
	Backoff      time.Duration
	Threshold    int
	Blink        bool
	NTPServer    string
	Broker       string
	HTTPAddr     string
	Heartbeat    time.Duration
}

// Clock is what the display last showed.
type Clock struct {
	Counter int64
	Local   logic.LocalTime
	Mode    logic.Mode
	Text    string
}

// Snapshot is a point-in-time copy of the clock's state.
type Snapshot struct {
	Clock         Clock
	Sync          timesync.Status
	LastEvent     *timesync.Event
	Reading       *logic.Reading
	SensorErr     string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the time since startup.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// SinceAttempt returns the time since the last sync attempt, or false if
// there has been none.
func (s Snapshot) SinceAttempt() (time.Duration, bool) {
	if s.Sync.LastAttempt.IsZero() {
		return 0, false
	}
	return s.Now.Sub(s.Sync.LastAttempt), true
}

// SinceSuccess returns the time since the last successful sync.
func (s Snapshot) SinceSuccess() (time.Duration, bool) {
	if s.Sync.LastSuccess.IsZero() {
		return 0, false
	}
	return s.Now.Sub(s.Sync.LastSuccess), true
}

// Tracker holds mutable state behind a lock.
type Tracker struct {
	mu    syncutil.RWMutex
	clock clockwork.Clock
	snap  Snapshot
}

// NewTracker creates a Tracker starting now.
func NewTracker(clock clockwork.Clock, cfg Config) *Tracker {
	return &Tracker{
		clock: clock,
		snap: Snapshot{
			StartTime: clock.Now(),
			Config:    cfg,
			Sync:      timesync.Status{State: timesync.StateIdle},
		},
	}
}

// UpdateClock records what was rendered.
func (t *Tracker) UpdateClock(c Clock) {
	t.mu.Lock()
	t.snap.Clock = c
	t.mu.Unlock()
}

// UpdateSync records the controller's state and, if non-nil, its latest event.
func (t *Tracker) UpdateSync(st timesync.Status, last *timesync.Event) {
	t.mu.Lock()
	t.snap.Sync = st
	if last != nil {
		e := *last
		t.snap.LastEvent = &e
	}
	t.mu.Unlock()
}

// UpdateReading records a sensor result. A failed read keeps the last good
// reading and records the error.
func (t *Tracker) UpdateReading(r logic.Reading, err error) {
	t.mu.Lock()
	if err != nil {
		t.snap.SensorErr = err.Error()
	} else {
		t.snap.Reading = &r
		t.snap.SensorErr = ""
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a copy with Now set to the current time.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.clock.Now()
	return s
}
