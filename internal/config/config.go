// Package config loads the appliance settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

// DefaultFile is the settings file name looked up when no path is given.
const DefaultFile = "settings.toml"

// Duration is a time.Duration written as a Go duration string ("10s", "1h").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration {
	return time.Duration(d)
}

// Values is the full settings file.
type Values struct {
	SyncInterval     Duration `toml:"sync_interval"`
	SyncCheckPeriod  Duration `toml:"sync_check_period"`
	FailureThreshold int      `toml:"failure_threshold"`
	Backoff          Duration `toml:"backoff"`
	FastRetry        bool     `toml:"fast_retry"`
	Blink            bool     `toml:"blink"`
	DebugStart       *int64   `toml:"debug_start,omitempty"`

	NTPServer      string   `toml:"ntp_server"`
	NTPTimeout     Duration `toml:"ntp_timeout"`
	ConnectTimeout Duration `toml:"connect_timeout"`
	ReconnectDelay Duration `toml:"reconnect_delay"`

	RenderPeriod Duration `toml:"render_period"`
	I2CBus       string   `toml:"i2c_bus"`
	SensorAddr   uint16   `toml:"sensor_addr"`
	SerialPort   string   `toml:"serial_port"`
	SerialBaud   int      `toml:"serial_baud"`

	GPIOChip  string `toml:"gpio_chip"`
	ResetPin  int    `toml:"reset_pin"`
	ButtonPin int    `toml:"button_pin"`

	MQTTBroker string   `toml:"mqtt_broker"`
	Heartbeat  Duration `toml:"heartbeat"`
	HTTPAddr   string   `toml:"http_addr"`

	LogFile  string `toml:"log_file"`
	LogLevel string `toml:"log_level"`
}

// Defaults returns the stock settings.
func Defaults() Values {
	return Values{
		SyncInterval:     Duration(time.Hour),
		SyncCheckPeriod:  Duration(5 * time.Second),
		FailureThreshold: 3,
		Backoff:          Duration(10 * time.Second),
		FastRetry:        true,
		Blink:            true,
		NTPServer:        "pool.ntp.org",
		NTPTimeout:       Duration(5 * time.Second),
		ConnectTimeout:   Duration(2 * time.Minute),
		ReconnectDelay:   Duration(5 * time.Second),
		RenderPeriod:     Duration(time.Second),
		I2CBus:           "1",
		SensorAddr:       0x44,
		SerialBaud:       115200,
		GPIOChip:         "gpiochip0",
		ResetPin:         -1,
		ButtonPin:        -1,
		Heartbeat:        Duration(15 * time.Minute),
		HTTPAddr:         ":8080",
		LogLevel:         "info",
	}
}

// Load reads path on top of the defaults. A missing file yields defaults.
func Load(path string) (Values, error) {
	vals := Defaults()
	if path == "" {
		return vals, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Info().Str("path", path).Msg("no settings file, using defaults")
		return vals, nil
	}
	if err != nil {
		return vals, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := Parse(data, &vals); err != nil {
		return vals, err
	}
	return vals, nil
}

// Parse unmarshals TOML data on top of vals and validates the result.
func Parse(data []byte, vals *Values) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(vals); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return vals.Validate()
}

// Validate rejects settings the appliance cannot run with.
func (v Values) Validate() error {
	var errs []error
	positive := map[string]Duration{
		"sync_interval":     v.SyncInterval,
		"sync_check_period": v.SyncCheckPeriod,
		"backoff":           v.Backoff,
		"ntp_timeout":       v.NTPTimeout,
		"connect_timeout":   v.ConnectTimeout,
		"reconnect_delay":   v.ReconnectDelay,
		"render_period":     v.RenderPeriod,
		"heartbeat":         v.Heartbeat,
	}
	for _, key := range slices.Sorted(maps.Keys(positive)) {
		if positive[key] <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", key, positive[key].D()))
		}
	}
	if v.FailureThreshold < 1 {
		errs = append(errs, fmt.Errorf("failure_threshold must be at least 1, got %d", v.FailureThreshold))
	}
	if v.NTPServer == "" {
		errs = append(errs, errors.New("ntp_server must be set"))
	}
	if v.SerialBaud <= 0 {
		errs = append(errs, fmt.Errorf("serial_baud must be positive, got %d", v.SerialBaud))
	}
	switch strings.ToLower(v.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be debug, info, warn or error, got %q", v.LogLevel))
	}
	return errors.Join(errs...)
}

// Marshal renders the values as TOML.
func (v Values) Marshal() ([]byte, error) {
	data, err := toml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
