// Package mqtt publishes clock events to an MQTT broker.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/matrix-clock/internal/timesync"
)

// Topic is the MQTT topic for time sync events.
const Topic = "clock/matrix/sync/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "clock/matrix/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a sync controller event to the broker.
	// Errors are for logging only.
	Publish(event timesync.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent is a lifecycle event (STARTUP, SHUTDOWN, HEARTBEAT, OFFLINE).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // e.g. "SIGTERM" (shutdown only)
	RawPayload []byte // pre-formatted JSON; returned as is by FormatSystemPayload
	Retained   bool
}

// Payload is the message body for sync events.
type Payload struct {
	Sync SyncPayload `json:"sync"`
}

// SyncPayload contains the sync event details.
type SyncPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Source    string `json:"source"`
	JumpS     *int64 `json:"jump_s,omitempty"`
	Failures  int    `json:"consecutive_failures"`
	Error     string `json:"error,omitempty"`
}

// FormatPayload creates the JSON payload for a sync event.
func FormatPayload(event timesync.Event) ([]byte, error) {
	p := SyncPayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
		Source:    event.Source,
		Failures:  event.Failures,
	}
	if event.Type == timesync.EventSynced {
		jump := event.Jump
		p.JumpS = &jump
	}
	if event.Err != nil {
		p.Error = event.Err.Error()
	}
	return json.Marshal(Payload{Sync: p})
}

// SystemPayload is the message body for simple system events that don't carry
// a status snapshot (LWT).
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Event:  event.Event,
		Reason: event.Reason,
	}
	if !event.Timestamp.IsZero() {
		inner.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(SystemPayload{System: inner})
}
