package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Time          TimeJSON   `json:"time"`
	Sync          SyncJSON   `json:"sync"`
	Sensor        SensorJSON `json:"sensor"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Config        ConfigJSON `json:"config"`
	LastEvent     *EventJSON `json:"last_event,omitempty"`
}

// TimeJSON describes the displayed time.
type TimeJSON struct {
	Counter  int64  `json:"counter"`
	Local    string `json:"local"`
	Mode     string `json:"mode"`
	WakeHour int    `json:"wake_hour"`
	Display  string `json:"display"`
}

// SyncJSON describes the sync controller.
type SyncJSON struct {
	State               string `json:"state"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	Attempts            int    `json:"attempts"`
	Successes           int    `json:"successes"`
	Failures            int    `json:"failures"`
	Resets              int    `json:"resets"`
	SinceAttemptSeconds *int64 `json:"since_attempt_seconds,omitempty"`
	SinceSuccessSeconds *int64 `json:"since_success_seconds,omitempty"`
}

// SensorJSON describes the last sensor reading.
type SensorJSON struct {
	OK           bool     `json:"ok"`
	TemperatureC *float64 `json:"temperature_c,omitempty"`
	HumidityPct  *float64 `json:"humidity_pct,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// EventJSON is the last sync event.
type EventJSON struct {
	Type     string `json:"type"`
	At       string `json:"at"`
	JumpS    int64  `json:"jump_s"`
	Failures int    `json:"consecutive_failures"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of the settings.
type ConfigJSON struct {
	SyncIntervalS int64  `json:"sync_interval_s"`
	SyncCheckS    int64  `json:"sync_check_s"`
	BackoffS      int64  `json:"backoff_s"`
	Threshold     int    `json:"failure_threshold"`
	Blink         bool   `json:"blink"`
	NTPServer     string `json:"ntp_server"`
	HeartbeatS    int64  `json:"heartbeat_s"`
	HTTPAddr      string `json:"http_addr"`
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}

func optSeconds(d time.Duration, ok bool) *int64 {
	if !ok {
		return nil
	}
	s := seconds(d)
	return &s
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Time: TimeJSON{
			Counter:  snap.Clock.Counter,
			Local:    snap.Clock.Local.String(),
			Mode:     string(snap.Clock.Mode.Period),
			WakeHour: snap.Clock.Mode.WakeHour,
			Display:  snap.Clock.Text,
		},
		Sync: SyncJSON{
			State:               string(snap.Sync.State),
			ConsecutiveFailures: snap.Sync.Failures,
			Attempts:            snap.Sync.Counts.Attempts,
			Successes:           snap.Sync.Counts.Successes,
			Failures:            snap.Sync.Counts.Failures,
			Resets:              snap.Sync.Counts.Resets,
			SinceAttemptSeconds: optSeconds(snap.SinceAttempt()),
			SinceSuccessSeconds: optSeconds(snap.SinceSuccess()),
		},
		Sensor: SensorJSON{
			OK:    snap.Reading != nil && snap.SensorErr == "",
			Error: snap.SensorErr,
		},
		UptimeSeconds: seconds(snap.Uptime()),
		Timestamp:     time.Unix(snap.Clock.Counter, 0).UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			SyncIntervalS: seconds(snap.Config.SyncInterval),
			SyncCheckS:    seconds(snap.Config.SyncCheck),
			BackoffS:      seconds(snap.Config.Backoff),
			Threshold:     snap.Config.Threshold,
			Blink:         snap.Config.Blink,
			NTPServer:     snap.Config.NTPServer,
			HeartbeatS:    seconds(snap.Config.Heartbeat),
			HTTPAddr:      snap.Config.HTTPAddr,
		},
	}
	if snap.Reading != nil {
		t, h := snap.Reading.TemperatureC, snap.Reading.HumidityPct
		inner.Sensor.TemperatureC = &t
		inner.Sensor.HumidityPct = &h
	}
	if e := snap.LastEvent; e != nil {
		inner.LastEvent = &EventJSON{
			Type:     string(e.Type),
			At:       e.Timestamp.UTC().Format(time.RFC3339),
			JumpS:    e.Jump,
			Failures: e.Failures,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
