// Package timesource provides the external absolute time used to correct the
// clock.
package timesource

import (
	"context"
	"errors"
	"time"
)

// ErrTransport marks every failure to obtain a time: timeouts, link down,
// protocol or validation errors. Callers test with errors.Is.
var ErrTransport = errors.New("time source transport error")

// Source returns the current absolute time or an error wrapping ErrTransport.
// It never returns stale data silently.
type Source interface {
	// Name identifies the source in logs.
	Name() string
	// Fetch queries the source.
	Fetch(ctx context.Context) (time.Time, error)
}
