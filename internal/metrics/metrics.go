// Package metrics exposes Prometheus metrics for the clock.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sweeney/matrix-clock/internal/logic"
	"github.com/sweeney/matrix-clock/internal/timesync"
)

// Metrics holds the clock's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	syncAttempts *prometheus.CounterVec
	radioResets  prometheus.Counter
	sensorErrors prometheus.Counter

	failures    prometheus.Gauge
	lastJump    prometheus.Gauge
	timeBase    prometheus.Gauge
	temperature prometheus.Gauge
	humidity    prometheus.Gauge
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		syncAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matrix_clock_sync_attempts_total",
				Help: "Time sync attempts by outcome",
			},
			[]string{"outcome"}, // success, failure
		),
		radioResets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matrix_clock_radio_resets_total",
			Help: "Radio resets after repeated sync failures",
		}),
		sensorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matrix_clock_sensor_errors_total",
			Help: "Failed temperature/humidity reads",
		}),
		failures: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "matrix_clock_sync_consecutive_failures",
			Help: "Current streak of failed sync attempts",
		}),
		lastJump: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "matrix_clock_sync_last_jump_seconds",
			Help: "Correction applied by the last successful sync",
		}),
		timeBase: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "matrix_clock_time_base_seconds",
			Help: "Current time base value (Unix seconds)",
		}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "matrix_clock_temperature_celsius",
			Help: "Last temperature reading",
		}),
		humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "matrix_clock_humidity_percent",
			Help: "Last relative humidity reading",
		}),
	}

	m.registry.MustRegister(
		m.syncAttempts,
		m.radioResets,
		m.sensorErrors,
		m.failures,
		m.lastJump,
		m.timeBase,
		m.temperature,
		m.humidity,
		collectors.NewGoCollector(),
	)

	// Pre-create label values so they show up at zero.
	m.syncAttempts.WithLabelValues("success")
	m.syncAttempts.WithLabelValues("failure")

	return m
}

// RecordSync updates the sync collectors for one controller event.
func (m *Metrics) RecordSync(e timesync.Event) {
	switch e.Type {
	case timesync.EventSynced:
		m.syncAttempts.WithLabelValues("success").Inc()
		m.lastJump.Set(float64(e.Jump))
		m.failures.Set(0)
	case timesync.EventSyncFailed:
		m.syncAttempts.WithLabelValues("failure").Inc()
		m.failures.Set(float64(e.Failures))
	case timesync.EventRadioReset:
		m.radioResets.Inc()
		m.failures.Set(0)
	}
}

// RecordReading stores the latest sensor values.
func (m *Metrics) RecordReading(r logic.Reading) {
	m.temperature.Set(r.TemperatureC)
	m.humidity.Set(r.HumidityPct)
}

// RecordSensorError counts a failed sensor read.
func (m *Metrics) RecordSensorError() {
	m.sensorErrors.Inc()
}

// SetTimeBase records the current time base value.
func (m *Metrics) SetTimeBase(ts int64) {
	m.timeBase.Set(float64(ts))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
