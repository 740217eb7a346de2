package radio

import "context"

// FakeLink records reset and reconnect calls.
type FakeLink struct {
	// Resets counts Reset calls.
	Resets int

	// Reconnects counts Reconnect calls.
	Reconnects int

	// ReconnectError, if set, will be returned by Reconnect.
	ReconnectError error

	// Calls records the call order ("reset", "reconnect").
	Calls []string
}

// NewFakeLink creates a FakeLink.
func NewFakeLink() *FakeLink {
	return &FakeLink{}
}

// Reset records the call.
func (f *FakeLink) Reset(ctx context.Context) {
	f.Resets++
	f.Calls = append(f.Calls, "reset")
}

// Reconnect records the call.
func (f *FakeLink) Reconnect(ctx context.Context) error {
	f.Reconnects++
	f.Calls = append(f.Calls, "reconnect")
	return f.ReconnectError
}
