// Package appliance wires the time base, sync controller, sensor and display
// into the scheduler's periodic tasks.
package appliance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/sweeney/matrix-clock/internal/display"
	"github.com/sweeney/matrix-clock/internal/gpio"
	"github.com/sweeney/matrix-clock/internal/logic"
	"github.com/sweeney/matrix-clock/internal/metrics"
	"github.com/sweeney/matrix-clock/internal/mqtt"
	"github.com/sweeney/matrix-clock/internal/scheduler"
	"github.com/sweeney/matrix-clock/internal/sensor"
	"github.com/sweeney/matrix-clock/internal/status"
	"github.com/sweeney/matrix-clock/internal/syncutil"
	"github.com/sweeney/matrix-clock/internal/timebase"
	"github.com/sweeney/matrix-clock/internal/timesync"
)

// Task periods.
const (
	TickPeriod          = time.Second
	DefaultSyncCheck    = 5 * time.Second
	DefaultRenderPeriod = time.Second
	ButtonPoll          = 50 * time.Millisecond
	ButtonDebounce      = 100 * time.Millisecond
)

// Deps are the collaborators. Sensor, Display, Base and Sync are required.
type Deps struct {
	Clock     clockwork.Clock
	Base      *timebase.TimeBase
	Sync      *timesync.Controller
	Sensor    sensor.Reader
	Display   display.Renderer
	Publisher mqtt.Publisher   // nil = don't publish
	Tracker   *status.Tracker  // nil = private tracker
	Metrics   *metrics.Metrics // nil = private registry
	Button    gpio.Button      // nil = no resync button
}

// Options tune the tasks.
type Options struct {
	Blink        bool
	SyncCheck    time.Duration
	RenderPeriod time.Duration
	Heartbeat    time.Duration // 0 disables heartbeats
}

// Appliance owns the scheduler and the device lock shared by the sync and
// render tasks.
type Appliance struct {
	d     Deps
	opts  Options
	sched *scheduler.Scheduler

	// device serializes access to the radio, sensor and display.
	device syncutil.Mutex

	reading   *logic.Reading // last good sample, nil after a failed read
	debouncer *logic.Debouncer
	buttonErr bool
}

type periodicTask struct {
	name   string
	period time.Duration
	action scheduler.Action
}

// New validates deps and registers the periodic tasks.
func New(d Deps, opts Options) (*Appliance, error) {
	if d.Base == nil || d.Sync == nil || d.Sensor == nil || d.Display == nil {
		return nil, errors.New("appliance: base, sync, sensor and display are required")
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Publisher == nil {
		d.Publisher = mqtt.NopPublisher{}
	}
	if d.Tracker == nil {
		d.Tracker = status.NewTracker(d.Clock, status.Config{})
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if opts.SyncCheck == 0 {
		opts.SyncCheck = DefaultSyncCheck
	}
	if opts.RenderPeriod == 0 {
		opts.RenderPeriod = DefaultRenderPeriod
	}

	a := &Appliance{
		d:         d,
		opts:      opts,
		sched:     scheduler.New(d.Clock),
		debouncer: logic.NewDebouncer(ButtonDebounce),
	}

	tasks := []periodicTask{
		{"tick", TickPeriod, a.tick},
		{"sync", opts.SyncCheck, a.syncCheck},
		{"render", opts.RenderPeriod, a.renderTask},
	}
	if d.Button != nil {
		tasks = append(tasks, periodicTask{"button", ButtonPoll, a.pollButton})
	}
	if opts.Heartbeat > 0 {
		tasks = append(tasks, periodicTask{"heartbeat", opts.Heartbeat, a.heartbeat})
	}
	for _, t := range tasks {
		if err := a.sched.Every(t.name, t.period, t.action); err != nil {
			return nil, fmt.Errorf("appliance: %w", err)
		}
	}
	return a, nil
}

// Startup shows the current time with the colon on and announces STARTUP.
func (a *Appliance) Startup() {
	a.device.Lock()
	a.render(true)
	a.device.Unlock()
	a.publishSystem("STARTUP", "")
}

// Run executes the tasks until ctx is cancelled.
func (a *Appliance) Run(ctx context.Context) error {
	return a.sched.Run(ctx)
}

// RunPending runs whatever tasks are due now.
func (a *Appliance) RunPending(ctx context.Context) int {
	return a.sched.RunPending(ctx)
}

// Shutdown announces SHUTDOWN with the given reason (e.g. the signal name).
func (a *Appliance) Shutdown(reason string) {
	a.publishSystem("SHUTDOWN", reason)
}

// Force requests a resync at the next sync check. Safe from any goroutine.
func (a *Appliance) Force() {
	a.d.Sync.Force()
}

func (a *Appliance) tick(context.Context) {
	a.d.Base.Tick()
}

func (a *Appliance) syncCheck(ctx context.Context) {
	a.device.Lock()
	defer a.device.Unlock()

	if a.d.Sync.IsDue() {
		// The radio may hold the display for seconds; show a steady colon.
		a.render(true)
	}

	events := a.d.Sync.Step(ctx)
	st := a.d.Sync.Status()
	if len(events) == 0 {
		a.d.Tracker.UpdateSync(st, nil)
		return
	}
	for i := range events {
		e := events[i]
		a.d.Metrics.RecordSync(e)
		a.d.Tracker.UpdateSync(st, &e)
		if err := a.d.Publisher.Publish(e); err != nil {
			log.Warn().Err(err).Str("event", string(e.Type)).Msg("publish sync event")
		}
	}
}

func (a *Appliance) renderTask(context.Context) {
	a.device.Lock()
	defer a.device.Unlock()
	a.render(false)
}

// render draws the current time. Caller holds the device lock.
func (a *Appliance) render(forceColon bool) {
	ts := a.d.Base.Now()
	lt := logic.ToLocal(ts)
	mode := logic.SelectMode(lt)

	// The sensor is only sampled on even seconds.
	if lt.Second%2 == 0 {
		a.sample()
	}

	sensorText := logic.FormatSensor(a.reading)
	text := logic.FormatDisplay(logic.FormatClock(lt, a.opts.Blink, forceColon), sensorText)
	a.d.Display.Render(text, mode)

	log.Debug().Msg("Tick: " + logic.FormatTrace(lt, sensorText))

	a.d.Metrics.SetTimeBase(ts)
	a.d.Tracker.UpdateClock(status.Clock{Counter: ts, Local: lt, Mode: mode, Text: text})
	if cs, ok := a.d.Publisher.(mqtt.ConnectionStatus); ok {
		a.d.Tracker.SetMQTTConnected(cs.IsConnected())
	}
}

func (a *Appliance) sample() {
	r, err := a.d.Sensor.Read()
	a.d.Tracker.UpdateReading(r, err)
	if err != nil {
		if a.reading != nil {
			log.Warn().Err(err).Msg("sensor read failed")
		}
		a.reading = nil
		a.d.Metrics.RecordSensorError()
		return
	}
	a.reading = &r
	a.d.Metrics.RecordReading(r)
}

func (a *Appliance) pollButton(context.Context) {
	pressed, err := a.d.Button.Pressed()
	if err != nil {
		if !a.buttonErr {
			log.Warn().Err(err).Msg("button read failed")
			a.buttonErr = true
		}
		return
	}
	a.buttonErr = false
	if a.debouncer.Process(pressed, a.d.Clock.Now()) {
		log.Info().Int("presses", a.debouncer.Presses()).Msg("resync button pressed")
		a.d.Sync.Force()
	}
}

func (a *Appliance) heartbeat(context.Context) {
	a.publishSystem("HEARTBEAT", "")
}

func (a *Appliance) publishSystem(event, reason string) {
	snap := a.d.Tracker.Snapshot()
	err := a.d.Publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp:  time.Unix(snap.Clock.Counter, 0).UTC(),
		Event:      event,
		Reason:     reason,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
		Retained:   true,
	})
	if err != nil {
		log.Warn().Err(err).Str("event", event).Msg("publish system event")
	}
}
