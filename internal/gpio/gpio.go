// Package gpio provides the clock's GPIO lines with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "time"

// Button reads the resync push button.
type Button interface {
	// Pressed returns the logical button level. The raw line is active-low
	// with a pull-up: raw 0 = pressed.
	Pressed() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// ResetLine drives the radio module's reset input.
type ResetLine interface {
	// Pulse holds the module in reset for d, then releases it.
	Pulse(d time.Duration) error

	// Close releases GPIO resources.
	Close() error
}

// Defaults (BCM numbering). -1 disables a line.
const (
	DefaultChip      = "gpiochip0"
	DefaultPinReset  = -1
	DefaultPinButton = -1

	// DefaultResetPulse matches the ESP32 co-processor reset timing.
	DefaultResetPulse = 100 * time.Millisecond
)
