package timesource

import (
	"context"
	"fmt"
	"time"
)

// Result is one scripted Fetch outcome.
type Result struct {
	Time time.Time
	Err  error // wrapped with ErrTransport when returned
}

// Fake is a test double that returns scripted results.
type Fake struct {
	// Results contains scripted outcomes. Each call to Fetch consumes the
	// next one; when exhausted the last is repeated.
	Results []Result

	index int

	// Calls counts Fetch invocations.
	Calls int
}

// NewFake creates a Fake with the given results.
func NewFake(results ...Result) *Fake {
	return &Fake{Results: results}
}

// Name returns "fake".
func (f *Fake) Name() string {
	return "fake"
}

// Fetch returns the next scripted result.
func (f *Fake) Fetch(ctx context.Context) (time.Time, error) {
	f.Calls++
	if len(f.Results) == 0 {
		return time.Time{}, fmt.Errorf("%w: no results configured", ErrTransport)
	}
	r := f.Results[f.index]
	if f.index < len(f.Results)-1 {
		f.index++
	}
	if r.Err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrTransport, r.Err)
	}
	return r.Time, nil
}
