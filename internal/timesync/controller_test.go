package timesync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweeney/matrix-clock/internal/radio"
	"github.com/sweeney/matrix-clock/internal/timebase"
	"github.com/sweeney/matrix-clock/internal/timesource"
)

var (
	seed    = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ntpTime = time.Date(2026, 3, 1, 12, 0, 42, 0, time.UTC)
	errTO   = errors.New("i/o timeout")
)

type harness struct {
	clock  *clockwork.FakeClock
	source *timesource.Fake
	link   *radio.FakeLink
	base   *timebase.TimeBase
	ctrl   *Controller
}

func newHarness(t *testing.T, cfg Config, results ...timesource.Result) *harness {
	t.Helper()
	h := &harness{
		clock:  clockwork.NewFakeClock(),
		source: timesource.NewFake(results...),
		link:   radio.NewFakeLink(),
	}
	h.base = timebase.New(h.clock, seed.Unix())
	h.ctrl = NewController(cfg, h.clock, h.source, h.link, h.base)
	return h
}

func eventTypes(events []Event) []EventType {
	var out []EventType
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

func TestFirstStepSyncs(t *testing.T) {
	h := newHarness(t, DefaultConfig(), timesource.Result{Time: ntpTime})

	require.True(t, h.ctrl.IsDue())
	events := h.ctrl.Step(context.Background())

	require.Len(t, events, 1)
	assert.Equal(t, EventSynced, events[0].Type)
	assert.Equal(t, int64(42), events[0].Jump)
	assert.Equal(t, "fake", events[0].Source)
	assert.Equal(t, ntpTime.Unix(), h.base.Now())
	assert.Equal(t, StateIdle, h.ctrl.State())
	assert.Equal(t, 0, h.ctrl.Failures())

	_, corrected := h.base.LastCorrection()
	assert.True(t, corrected)
}

func TestNotDueUntilIntervalElapsed(t *testing.T) {
	cfg := DefaultConfig()
	h := newHarness(t, cfg, timesource.Result{Time: ntpTime})

	h.ctrl.Step(context.Background())
	require.Equal(t, 1, h.source.Calls)

	h.clock.Advance(cfg.Interval)
	assert.False(t, h.ctrl.IsDue(), "exactly one interval is not yet due")
	assert.Nil(t, h.ctrl.Step(context.Background()))

	h.clock.Advance(time.Second)
	assert.True(t, h.ctrl.IsDue())
	h.ctrl.Step(context.Background())
	assert.Equal(t, 2, h.source.Calls)
}

func TestFailureEntersBackoff(t *testing.T) {
	cfg := DefaultConfig()
	h := newHarness(t, cfg, timesource.Result{Err: errTO})

	events := h.ctrl.Step(context.Background())

	require.Len(t, events, 1)
	assert.Equal(t, EventSyncFailed, events[0].Type)
	assert.Equal(t, 1, events[0].Failures)
	assert.ErrorIs(t, events[0].Err, timesource.ErrTransport)
	assert.Equal(t, StateBackoff, h.ctrl.State())
	assert.Equal(t, seed.Unix(), h.base.Now(), "failed sync must not touch the counter")

	// Still backing off just before the deadline.
	h.clock.Advance(cfg.Backoff - time.Millisecond)
	assert.False(t, h.ctrl.IsDue())
	assert.Nil(t, h.ctrl.Step(context.Background()))
	assert.Equal(t, 1, h.source.Calls)

	h.clock.Advance(time.Millisecond)
	assert.True(t, h.ctrl.IsDue())
}

func TestThresholdFailuresResetOnce(t *testing.T) {
	cfg := DefaultConfig()
	h := newHarness(t, cfg, timesource.Result{Err: errTO})
	ctx := context.Background()

	var all []EventType
	for i := 0; i < cfg.Threshold; i++ {
		all = append(all, eventTypes(h.ctrl.Step(ctx))...)
		h.clock.Advance(cfg.Backoff)
	}

	assert.Equal(t, []EventType{EventSyncFailed, EventSyncFailed, EventSyncFailed, EventRadioReset}, all)
	assert.Equal(t, 1, h.link.Resets)
	assert.Equal(t, []string{"reset", "reconnect"}, h.link.Calls)
	assert.Equal(t, 0, h.ctrl.Failures())
	assert.Equal(t, StateIdle, h.ctrl.State())
	assert.Equal(t, 1, h.ctrl.Status().Counts.Resets)
}

func TestSuccessClearsStreakBelowThreshold(t *testing.T) {
	cfg := DefaultConfig()
	for n := 1; n < cfg.Threshold; n++ {
		results := make([]timesource.Result, 0, n+1)
		for i := 0; i < n; i++ {
			results = append(results, timesource.Result{Err: errTO})
		}
		results = append(results, timesource.Result{Time: ntpTime})
		h := newHarness(t, cfg, results...)

		for i := 0; i <= n; i++ {
			h.ctrl.Step(context.Background())
			h.clock.Advance(cfg.Backoff)
		}

		assert.Equal(t, 0, h.ctrl.Failures(), "n=%d", n)
		assert.Equal(t, 0, h.link.Resets, "n=%d", n)
		assert.Equal(t, ntpTime.Unix(), h.base.Now(), "n=%d", n)
	}
}

func TestResetClearsStreakEvenIfReconnectFails(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Threshold = 1
	h := newHarness(t, cfg, timesource.Result{Err: errTO})
	h.link.ReconnectError = errors.New("still down")

	events := h.ctrl.Step(context.Background())

	assert.Equal(t, []EventType{EventSyncFailed, EventRadioReset}, eventTypes(events))
	assert.Equal(t, 0, h.ctrl.Failures())
	assert.Equal(t, StateIdle, h.ctrl.State())
}

func TestSlowRetryWaitsFullInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FastRetry = false
	h := newHarness(t, cfg, timesource.Result{Err: errTO})

	h.ctrl.Step(context.Background())
	h.clock.Advance(cfg.Backoff)
	h.ctrl.Step(context.Background())

	assert.Equal(t, StateIdle, h.ctrl.State(), "backoff elapsed")
	assert.False(t, h.ctrl.IsDue())
	assert.Equal(t, 1, h.source.Calls)

	h.clock.Advance(cfg.Interval)
	assert.True(t, h.ctrl.IsDue())
}

func TestForceCutsBackoffShort(t *testing.T) {
	h := newHarness(t, DefaultConfig(),
		timesource.Result{Err: errTO},
		timesource.Result{Time: ntpTime},
	)
	ctx := context.Background()

	h.ctrl.Step(ctx)
	require.Equal(t, StateBackoff, h.ctrl.State())

	h.ctrl.Force()
	assert.True(t, h.ctrl.IsDue())
	events := h.ctrl.Step(ctx)

	assert.Equal(t, []EventType{EventSynced}, eventTypes(events))
	assert.Equal(t, 2, h.source.Calls)
	assert.False(t, h.ctrl.IsDue(), "force is consumed")
}

func TestForceWhileIdle(t *testing.T) {
	h := newHarness(t, DefaultConfig(), timesource.Result{Time: ntpTime})
	ctx := context.Background()

	h.ctrl.Step(ctx)
	h.clock.Advance(time.Minute)
	require.False(t, h.ctrl.IsDue())

	h.ctrl.Force()
	h.ctrl.Step(ctx)
	assert.Equal(t, 2, h.source.Calls)
}

func TestCancelledFetchIsNotAFailure(t *testing.T) {
	h := newHarness(t, DefaultConfig(), timesource.Result{Err: errTO})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := h.ctrl.Step(ctx)

	assert.Nil(t, events)
	assert.Equal(t, 0, h.ctrl.Failures())
	assert.Equal(t, StateIdle, h.ctrl.State())
}

func TestZeroConfigUsesDefaults(t *testing.T) {
	h := newHarness(t, Config{}, timesource.Result{Err: errTO})
	assert.Equal(t, DefaultThreshold, h.ctrl.cfg.Threshold)
	assert.Equal(t, DefaultInterval, h.ctrl.cfg.Interval)
	assert.Equal(t, DefaultBackoff, h.ctrl.cfg.Backoff)
}

func TestStatusCounts(t *testing.T) {
	h := newHarness(t, DefaultConfig(),
		timesource.Result{Err: errTO},
		timesource.Result{Time: ntpTime},
	)
	ctx := context.Background()

	h.ctrl.Step(ctx)
	h.clock.Advance(DefaultBackoff)
	h.ctrl.Step(ctx)

	st := h.ctrl.Status()
	assert.Equal(t, Counts{Attempts: 2, Successes: 1, Failures: 1}, st.Counts)
	assert.Equal(t, h.clock.Now(), st.LastSuccess)
	assert.Equal(t, h.clock.Now(), st.LastAttempt)
}
