package sensor

import (
	"fmt"

	"github.com/sweeney/matrix-clock/internal/logic"
)

// FakeReader is a test double that returns scripted readings.
type FakeReader struct {
	// Readings contains scripted samples. Each call to Read consumes the
	// next one; when exhausted the last is repeated.
	Readings []logic.Reading

	index int

	// ReadError, if set, will be returned (wrapped with ErrIO) by Read.
	ReadError error

	// Reads counts Read calls.
	Reads int

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeReader creates a FakeReader with the given readings.
func NewFakeReader(readings ...logic.Reading) *FakeReader {
	return &FakeReader{Readings: readings}
}

// Read returns the next scripted reading.
func (f *FakeReader) Read() (logic.Reading, error) {
	f.Reads++
	if f.ReadError != nil {
		return logic.Reading{}, fmt.Errorf("%w: %v", ErrIO, f.ReadError)
	}
	if len(f.Readings) == 0 {
		return logic.Reading{}, fmt.Errorf("%w: no readings configured", ErrIO)
	}
	r := f.Readings[f.index]
	if f.index < len(f.Readings)-1 {
		f.index++
	}
	return r, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}
