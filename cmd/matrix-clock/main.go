// Command matrix-clock drives an LED matrix clock: a free-running seconds
// counter corrected over NTP, with a temperature/humidity line and a
// day/night display mode.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/sweeney/matrix-clock/internal/appliance"
	"github.com/sweeney/matrix-clock/internal/config"
	"github.com/sweeney/matrix-clock/internal/display"
	"github.com/sweeney/matrix-clock/internal/gpio"
	"github.com/sweeney/matrix-clock/internal/logging"
	"github.com/sweeney/matrix-clock/internal/logic"
	"github.com/sweeney/matrix-clock/internal/metrics"
	"github.com/sweeney/matrix-clock/internal/mqtt"
	"github.com/sweeney/matrix-clock/internal/radio"
	"github.com/sweeney/matrix-clock/internal/sensor"
	"github.com/sweeney/matrix-clock/internal/status"
	"github.com/sweeney/matrix-clock/internal/timebase"
	"github.com/sweeney/matrix-clock/internal/timesource"
	"github.com/sweeney/matrix-clock/internal/timesync"
	"github.com/sweeney/matrix-clock/internal/web"
	"golang.org/x/sync/errgroup"
)

const clientID = "matrix-clock"

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if err := logging.Init(opts.vals.LogLevel, opts.vals.LogFile); err != nil {
		log.Fatal().Err(err).Msg("init logging")
	}
	if err := run(opts); err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}

type cliOptions struct {
	configPath string
	printState bool
	vals       config.Values
}

// parseFlags loads the settings file and applies command-line overrides.
func parseFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("matrix-clock", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultFile, "Settings file (TOML)")
	printState := fs.Bool("print-state", false, "Print current time, mode and sensor reading and exit")
	debugStart := fs.Int64("debug-start", 0, "Start the counter at this Unix time instead of the wall clock")
	httpAddr := fs.String("http", "", `HTTP status address ("off" disables)`)
	broker := fs.String("broker", "", "MQTT broker address")
	serialPort := fs.String("serial", "", "Serial port of the LED matrix controller")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	vals, err := config.Load(*configPath)
	if err != nil {
		return cliOptions{}, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "debug-start":
			v := *debugStart
			vals.DebugStart = &v
		case "http":
			vals.HTTPAddr = *httpAddr
		case "broker":
			vals.MQTTBroker = *broker
		case "serial":
			vals.SerialPort = *serialPort
		case "log-level":
			vals.LogLevel = *logLevel
		}
	})
	if vals.HTTPAddr == "off" {
		vals.HTTPAddr = ""
	}
	if err := vals.Validate(); err != nil {
		return cliOptions{}, err
	}
	return cliOptions{configPath: *configPath, printState: *printState, vals: vals}, nil
}

func run(opts cliOptions) error {
	cfg := opts.vals
	clock := clockwork.NewRealClock()
	start := timebase.StartValue(cfg.DebugStart, time.Now())

	reader, err := sensor.NewSHT40(cfg.I2CBus, cfg.SensorAddr)
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}
	defer reader.Close()

	if opts.printState {
		return printState(os.Stdout, reader, start)
	}

	var renderer display.Renderer = display.NewConsole(os.Stdout)
	if cfg.SerialPort != "" {
		port, err := display.OpenSerial(cfg.SerialPort, cfg.SerialBaud)
		if err != nil {
			return fmt.Errorf("init display: %w", err)
		}
		defer port.Close()
		renderer = port
	}

	var resetLine gpio.ResetLine
	if cfg.ResetPin >= 0 {
		line, err := gpio.NewRealResetLine(cfg.GPIOChip, cfg.ResetPin)
		if err != nil {
			return fmt.Errorf("init radio reset line: %w", err)
		}
		defer line.Close()
		resetLine = line
	}

	var button gpio.Button
	if cfg.ButtonPin >= 0 {
		b, err := gpio.NewRealButton(cfg.GPIOChip, cfg.ButtonPin)
		if err != nil {
			return fmt.Errorf("init button: %w", err)
		}
		defer b.Close()
		button = b
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	link := radio.NewNetLink(cfg.NTPServer, resetLine, cfg.ReconnectDelay.D(), clock)
	log.Info().Dur("timeout", cfg.ConnectTimeout.D()).Msg("waiting for network")
	if err := waitForNetwork(context.Background(), link, cfg.ConnectTimeout.D()); err != nil {
		return err
	}

	base := timebase.New(clock, start)
	ctrl := timesync.NewController(timesync.Config{
		Interval:  cfg.SyncInterval.D(),
		Threshold: cfg.FailureThreshold,
		Backoff:   cfg.Backoff.D(),
		FastRetry: cfg.FastRetry,
	}, clock, timesource.NewNTP(cfg.NTPServer, cfg.NTPTimeout.D()), link, base)

	var publisher mqtt.Publisher = mqtt.NopPublisher{}
	if cfg.MQTTBroker != "" {
		publisher = mqtt.NewRealPublisher(cfg.MQTTBroker, clientID)
	}
	defer publisher.Close()

	tracker := status.NewTracker(clock, status.Config{
		SyncInterval: cfg.SyncInterval.D(),
		SyncCheck:    cfg.SyncCheckPeriod.D(),
		Backoff:      cfg.Backoff.D(),
		Threshold:    cfg.FailureThreshold,
		Blink:        cfg.Blink,
		NTPServer:    cfg.NTPServer,
		Broker:       cfg.MQTTBroker,
		HTTPAddr:     cfg.HTTPAddr,
		Heartbeat:    cfg.Heartbeat.D(),
	})
	m := metrics.New()

	app, err := appliance.New(appliance.Deps{
		Clock:     clock,
		Base:      base,
		Sync:      ctrl,
		Sensor:    reader,
		Display:   renderer,
		Publisher: publisher,
		Tracker:   tracker,
		Metrics:   m,
		Button:    button,
	}, appliance.Options{
		Blink:        cfg.Blink,
		SyncCheck:    cfg.SyncCheckPeriod.D(),
		RenderPeriod: cfg.RenderPeriod.D(),
		Heartbeat:    cfg.Heartbeat.D(),
	})
	if err != nil {
		return err
	}

	var srv *web.Server
	if cfg.HTTPAddr != "" {
		srv = web.New(cfg.HTTPAddr, tracker, app, m.Handler())
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http status server listening")
	}

	log.Info().
		Str("start", logic.ToLocal(start).String()).
		Dur("sync_interval", cfg.SyncInterval.D()).
		Str("ntp", cfg.NTPServer).
		Str("broker", cfg.MQTTBroker).
		Msg("started")

	app.Startup()
	return serve(app, srv, sigCh)
}

// serve runs the appliance and the status server until a signal arrives,
// then announces SHUTDOWN.
func serve(app *appliance.Appliance, srv *web.Server, sig <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	reason := "UNKNOWN"
	g.Go(func() error {
		select {
		case s := <-sig:
			reason = signalName(s)
			log.Info().Str("signal", reason).Msg("shutting down")
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	g.Go(func() error {
		if err := app.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("scheduler: %w", err)
		}
		return nil
	})

	if srv != nil {
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()
	app.Shutdown(reason)
	return err
}

func waitForNetwork(ctx context.Context, link radio.Link, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := link.Reconnect(ctx); err != nil {
		return fmt.Errorf("no network within %v: %w", timeout, err)
	}
	return nil
}

func printState(w io.Writer, reader sensor.Reader, start int64) error {
	lt := logic.ToLocal(start)
	mode := logic.SelectMode(lt)

	var reading *logic.Reading
	r, err := reader.Read()
	if err != nil {
		log.Warn().Err(err).Msg("sensor read failed")
	} else {
		reading = &r
	}

	_, err = fmt.Fprintf(w, "Time: %s, Mode: %s (wake %d:00), Sensor: %s\n",
		lt, mode.Period, mode.WakeHour, logic.FormatSensor(reading))
	return err
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
