package mqtt

import "github.com/sweeney/matrix-clock/internal/timesync"

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	// Events contains all sync events that were published.
	Events []timesync.Event

	// Payloads contains the JSON payloads for sync events.
	Payloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the sync event.
func (f *FakePublisher) Publish(event timesync.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports the Connected field.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// EventTypes returns the types of recorded sync events in order.
func (f *FakePublisher) EventTypes() []timesync.EventType {
	var out []timesync.EventType
	for _, e := range f.Events {
		out = append(out, e.Type)
	}
	return out
}
