package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	require.NoError(t, Defaults().Validate())
}

func TestLoadEmptyPath(t *testing.T) {
	vals, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), vals)
}

func TestLoadMissingFile(t *testing.T) {
	vals, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), vals)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	data := `
sync_interval = "30m"
failure_threshold = 5
blink = false
debug_start = 21540
sensor_addr = 0x45
mqtt_broker = "tcp://broker:1883"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	vals, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, vals.SyncInterval.D())
	assert.Equal(t, 5, vals.FailureThreshold)
	assert.False(t, vals.Blink)
	require.NotNil(t, vals.DebugStart)
	assert.Equal(t, int64(21540), *vals.DebugStart)
	assert.Equal(t, uint16(0x45), vals.SensorAddr)
	assert.Equal(t, "tcp://broker:1883", vals.MQTTBroker)

	// Untouched keys keep their defaults.
	assert.Equal(t, 10*time.Second, vals.Backoff.D())
	assert.Equal(t, "pool.ntp.org", vals.NTPServer)
	assert.Equal(t, -1, vals.ResetPin)
}

func TestParseRejectsBadDuration(t *testing.T) {
	vals := Defaults()
	err := Parse([]byte(`backoff = "soon"`), &vals)
	assert.ErrorContains(t, err, "invalid duration")
}

func TestParseRejectsUnknownKey(t *testing.T) {
	vals := Defaults()
	assert.Error(t, Parse([]byte(`colour = "red"`), &vals))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Values)
		want   string
	}{
		{"zero threshold", func(v *Values) { v.FailureThreshold = 0 }, "failure_threshold"},
		{"zero backoff", func(v *Values) { v.Backoff = 0 }, "backoff must be positive"},
		{"negative check period", func(v *Values) { v.SyncCheckPeriod = Duration(-time.Second) }, "sync_check_period"},
		{"empty ntp server", func(v *Values) { v.NTPServer = "" }, "ntp_server"},
		{"bad log level", func(v *Values) { v.LogLevel = "loud" }, "log_level"},
		{"bad baud", func(v *Values) { v.SerialBaud = 0 }, "serial_baud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Defaults()
			tt.mutate(&v)
			assert.ErrorContains(t, v.Validate(), tt.want)
		})
	}
}

func TestMarshalRoundTripsDurations(t *testing.T) {
	data, err := Defaults().Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "1h0m0s")

	vals := Defaults()
	vals.SyncInterval = 0
	require.NoError(t, Parse(data, &vals))
	assert.Equal(t, time.Hour, vals.SyncInterval.D())
}
