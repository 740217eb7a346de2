//go:build !linux

package gpio

import (
	"errors"
	"time"
)

// RealButton is not available on non-Linux platforms.
type RealButton struct{}

// NewRealButton returns an error on non-Linux platforms.
func NewRealButton(chipName string, pin int) (*RealButton, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Pressed is not implemented on non-Linux platforms.
func (b *RealButton) Pressed() (bool, error) {
	return false, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (b *RealButton) Close() error {
	return nil
}

// RealResetLine is not available on non-Linux platforms.
type RealResetLine struct{}

// NewRealResetLine returns an error on non-Linux platforms.
func NewRealResetLine(chipName string, pin int) (*RealResetLine, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Pulse is not implemented on non-Linux platforms.
func (r *RealResetLine) Pulse(d time.Duration) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealResetLine) Close() error {
	return nil
}
