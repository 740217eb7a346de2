//go:build deadlock

// Package syncutil provides mutex primitives with optional deadlock detection.
// Build with -tags=deadlock to enable deadlock detection during development.
package syncutil

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// DeadlockEnabled is true if the deadlock detector is enabled.
const DeadlockEnabled = true

func init() {
	// A stuck NTP query holds the device lock for at most ntp_timeout;
	// anything beyond this is a real deadlock.
	deadlock.Opts.DeadlockTimeout = 60 * time.Second
}

// A Mutex is a mutual exclusion lock.
type Mutex struct {
	deadlock.Mutex
}

// An RWMutex is a reader/writer mutual exclusion lock.
type RWMutex struct {
	deadlock.RWMutex
}
