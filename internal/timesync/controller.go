package timesync

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/sweeney/matrix-clock/internal/radio"
	"github.com/sweeney/matrix-clock/internal/timesource"
)

// Corrector is the part of the time base the controller writes.
type Corrector interface {
	Correct(ts int64) int64
	Now() int64
}

// Controller runs the resync state machine. It is driven from a single
// goroutine (the scheduler); only Force may be called concurrently.
type Controller struct {
	cfg    Config
	clock  clockwork.Clock
	source timesource.Source
	link   radio.Link
	base   Corrector

	state        State
	failures     int
	lastAttempt  time.Time
	lastSuccess  time.Time
	backoffUntil time.Time
	counts       Counts
	forced       atomic.Bool
}

// NewController creates a controller in the Idle state. A zero Threshold,
// Interval or Backoff is replaced by its default.
func NewController(cfg Config, clock clockwork.Clock, source timesource.Source, link radio.Link, base Corrector) *Controller {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	return &Controller{
		cfg:    cfg,
		clock:  clock,
		source: source,
		link:   link,
		base:   base,
		state:  StateIdle,
	}
}

// IsDue reports whether the next Step will attempt a sync.
func (c *Controller) IsDue() bool {
	if c.forced.Load() {
		return true
	}
	if c.lastAttempt.IsZero() {
		return true
	}
	now := c.clock.Now()
	if c.state == StateBackoff && now.Before(c.backoffUntil) {
		return false
	}
	if c.failures > 0 && c.cfg.FastRetry {
		return true
	}
	return now.Sub(c.lastAttempt) > c.cfg.Interval
}

// Force makes the next Step attempt a sync, cutting a backoff short.
func (c *Controller) Force() {
	c.forced.Store(true)
}

// Step advances the state machine once and returns the resulting events.
func (c *Controller) Step(ctx context.Context) []Event {
	if c.state == StateBackoff && !c.clock.Now().Before(c.backoffUntil) {
		c.state = StateIdle
	}
	if !c.IsDue() {
		return nil
	}
	if c.state == StateBackoff {
		log.Info().Msg("forced resync cuts backoff short")
		c.state = StateIdle
	}
	c.forced.Store(false)
	return c.attempt(ctx)
}

func (c *Controller) attempt(ctx context.Context) []Event {
	c.state = StateSyncing
	c.counts.Attempts++
	log.Info().Str("source", c.source.Name()).Msg("syncing time")

	ts, err := c.source.Fetch(ctx)
	c.lastAttempt = c.clock.Now()

	if ctx.Err() != nil {
		// Shutting down: not a link failure.
		c.state = StateIdle
		return nil
	}

	if err == nil {
		jump := c.base.Correct(ts.Unix())
		c.failures = 0
		c.lastSuccess = c.lastAttempt
		c.counts.Successes++
		c.state = StateIdle
		log.Info().Int64("jump_s", jump).Time("time", ts).Msg("time synchronized")
		return []Event{{
			Timestamp: ts.UTC().Truncate(time.Second),
			Type:      EventSynced,
			Source:    c.source.Name(),
			Jump:      jump,
		}}
	}

	c.failures++
	c.counts.Failures++
	log.Warn().Err(err).Int("failures", c.failures).Msg("time sync failed")
	events := []Event{{
		Timestamp: c.baseTime(),
		Type:      EventSyncFailed,
		Source:    c.source.Name(),
		Failures:  c.failures,
		Err:       err,
	}}

	if c.failures < c.cfg.Threshold {
		c.state = StateBackoff
		c.backoffUntil = c.lastAttempt.Add(c.cfg.Backoff)
		return events
	}

	c.state = StateResetting
	log.Warn().Int("failures", c.failures).Msg("too many consecutive failures, resetting radio")
	c.link.Reset(ctx)
	if err := c.link.Reconnect(ctx); err != nil {
		log.Error().Err(err).Msg("reconnect after radio reset failed")
	}
	c.failures = 0
	c.counts.Resets++
	c.state = StateIdle

	return append(events, Event{
		Timestamp: c.baseTime(),
		Type:      EventRadioReset,
		Source:    c.source.Name(),
	})
}

func (c *Controller) baseTime() time.Time {
	return time.Unix(c.base.Now(), 0).UTC()
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Failures returns the consecutive failure count.
func (c *Controller) Failures() int {
	return c.failures
}

// Status returns a snapshot of the controller.
func (c *Controller) Status() Status {
	return Status{
		State:       c.state,
		Failures:    c.failures,
		LastAttempt: c.lastAttempt,
		LastSuccess: c.lastSuccess,
		Counts:      c.counts,
	}
}
