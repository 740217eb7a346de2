package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sweeney/matrix-clock/internal/appliance"
	"github.com/sweeney/matrix-clock/internal/display"
	"github.com/sweeney/matrix-clock/internal/logic"
	"github.com/sweeney/matrix-clock/internal/mqtt"
	"github.com/sweeney/matrix-clock/internal/radio"
	"github.com/sweeney/matrix-clock/internal/sensor"
	"github.com/sweeney/matrix-clock/internal/timebase"
	"github.com/sweeney/matrix-clock/internal/timesource"
	"github.com/sweeney/matrix-clock/internal/timesync"
)

func TestParseFlagsDefaults(t *testing.T) {
	opts, err := parseFlags([]string{"-config", filepath.Join(t.TempDir(), "missing.toml")})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if opts.printState {
		t.Error("print-state should default to false")
	}
	if opts.vals.DebugStart != nil {
		t.Error("debug-start should be unset")
	}
	if opts.vals.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr: got %q", opts.vals.HTTPAddr)
	}
}

func TestParseFlagsOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	data := "mqtt_broker = \"tcp://file:1883\"\nlog_level = \"warn\"\nfailure_threshold = 4\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	opts, err := parseFlags([]string{
		"-config", path,
		"-broker", "tcp://flag:1883",
		"-debug-start", "21540",
		"-http", "off",
		"-print-state",
	})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}

	if opts.vals.MQTTBroker != "tcp://flag:1883" {
		t.Errorf("flag should override file broker, got %q", opts.vals.MQTTBroker)
	}
	if opts.vals.LogLevel != "warn" {
		t.Errorf("file log level should survive, got %q", opts.vals.LogLevel)
	}
	if opts.vals.FailureThreshold != 4 {
		t.Errorf("FailureThreshold: got %d, want 4", opts.vals.FailureThreshold)
	}
	if opts.vals.DebugStart == nil || *opts.vals.DebugStart != 21540 {
		t.Errorf("DebugStart: got %v", opts.vals.DebugStart)
	}
	if opts.vals.HTTPAddr != "" {
		t.Errorf(`"off" should disable HTTP, got %q`, opts.vals.HTTPAddr)
	}
	if !opts.printState {
		t.Error("expected print-state")
	}
}

func TestParseFlagsRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte("failure_threshold = 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := parseFlags([]string{"-config", path}); err == nil {
		t.Error("expected validation error")
	}
	if _, err := parseFlags([]string{"-log-level", "loud", "-config", filepath.Join(t.TempDir(), "x.toml")}); err == nil {
		t.Error("expected bad log level to be rejected")
	}
}

func TestPrintState(t *testing.T) {
	var buf bytes.Buffer
	reader := sensor.NewFakeReader(logic.Reading{TemperatureC: 21.34, HumidityPct: 45})

	if err := printState(&buf, reader, 5*3600+59*60); err != nil {
		t.Fatalf("printState: %v", err)
	}
	want := "Time: 1970-01-01 06:59:00 CET, Mode: NIGHT (wake 7:00), Sensor: 21.3C 45.0%\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestPrintStateSensorError(t *testing.T) {
	var buf bytes.Buffer
	reader := sensor.NewFakeReader()
	reader.ReadError = errors.New("nack")

	if err := printState(&buf, reader, 0); err != nil {
		t.Fatalf("printState: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(logic.SensorPlaceholder)) {
		t.Errorf("expected placeholder, got %q", buf.String())
	}
}

func TestWaitForNetwork(t *testing.T) {
	link := radio.NewFakeLink()
	if err := waitForNetwork(context.Background(), link, time.Second); err != nil {
		t.Fatalf("waitForNetwork: %v", err)
	}
	if link.Reconnects != 1 {
		t.Errorf("Reconnects: got %d, want 1", link.Reconnects)
	}

	link.ReconnectError = context.DeadlineExceeded
	err := waitForNetwork(context.Background(), link, time.Second)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected wrapped deadline error, got %v", err)
	}
}

func TestSignalName(t *testing.T) {
	tests := map[os.Signal]string{
		syscall.SIGINT:  "SIGINT",
		syscall.SIGTERM: "SIGTERM",
		syscall.SIGHUP:  "UNKNOWN",
	}
	for sig, want := range tests {
		if got := signalName(sig); got != want {
			t.Errorf("signalName(%v): got %q, want %q", sig, got, want)
		}
	}
}

func newTestAppliance(t *testing.T) (*appliance.Appliance, *mqtt.FakePublisher) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	base := timebase.New(clock, 0)
	ctrl := timesync.NewController(timesync.DefaultConfig(), clock,
		timesource.NewFake(timesource.Result{Err: errors.New("offline")}), radio.NewFakeLink(), base)
	pub := mqtt.NewFakePublisher()
	app, err := appliance.New(appliance.Deps{
		Clock:     clock,
		Base:      base,
		Sync:      ctrl,
		Sensor:    sensor.NewFakeReader(),
		Display:   display.NewFake(),
		Publisher: pub,
	}, appliance.Options{})
	if err != nil {
		t.Fatalf("appliance.New: %v", err)
	}
	return app, pub
}

func TestServeShutdownOnSignal(t *testing.T) {
	for _, sig := range []os.Signal{syscall.SIGINT, syscall.SIGTERM} {
		app, pub := newTestAppliance(t)
		sigCh := make(chan os.Signal, 1)
		sigCh <- sig

		done := make(chan error, 1)
		go func() { done <- serve(app, nil, sigCh) }()

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("serve returned error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("serve did not return after signal")
		}

		if len(pub.SystemEvents) != 1 {
			t.Fatalf("expected 1 system event, got %d", len(pub.SystemEvents))
		}
		se := pub.SystemEvents[0]
		if se.Event != "SHUTDOWN" {
			t.Errorf("expected SHUTDOWN, got %q", se.Event)
		}
		if se.Reason != signalName(sig) {
			t.Errorf("reason: got %q, want %q", se.Reason, signalName(sig))
		}
		if !se.Retained {
			t.Error("expected Retained=true for SHUTDOWN")
		}
	}
}
