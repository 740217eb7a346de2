package gpio

import (
	"errors"
	"time"
)

// FakeButton is a test double that returns scripted button levels.
type FakeButton struct {
	// Samples contains scripted levels to return.
	// Each call to Pressed() consumes the next sample.
	Samples []bool

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Pressed()
	ReadError error
}

// NewFakeButton creates a FakeButton with the given samples.
func NewFakeButton(samples []bool) *FakeButton {
	return &FakeButton{Samples: samples}
}

// Pressed returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeButton) Pressed() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the button as closed.
func (f *FakeButton) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the button to the beginning of samples.
func (f *FakeButton) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeResetLine records reset pulses.
type FakeResetLine struct {
	// Pulses contains the duration of every pulse.
	Pulses []time.Duration

	// PulseError, if set, will be returned by Pulse()
	PulseError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeResetLine creates a FakeResetLine.
func NewFakeResetLine() *FakeResetLine {
	return &FakeResetLine{}
}

// Pulse records d.
func (f *FakeResetLine) Pulse(d time.Duration) error {
	if f.PulseError != nil {
		return f.PulseError
	}
	f.Pulses = append(f.Pulses, d)
	return nil
}

// Close marks the line as closed.
func (f *FakeResetLine) Close() error {
	f.Closed = true
	return nil
}
