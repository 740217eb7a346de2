//go:build linux

package gpio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealButton reads the push button from actual hardware.
type RealButton struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealButton requests pin on chip as an input with pull-up.
func NewRealButton(chipName string, pin int) (*RealButton, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request button pin %d: %w", pin, err)
	}

	return &RealButton{chip: chip, line: line}, nil
}

// Pressed returns true while the button is held.
// Inverts raw GPIO: raw 0 (pulled to ground) = pressed.
func (b *RealButton) Pressed() (bool, error) {
	raw, err := b.line.Value()
	if err != nil {
		return false, fmt.Errorf("read button pin: %w", err)
	}
	return raw == 0, nil
}

// Close releases GPIO resources.
func (b *RealButton) Close() error {
	var errs []error
	if b.line != nil {
		if err := b.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pin: %w", err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealResetLine drives the radio reset pin on actual hardware.
type RealResetLine struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealResetLine requests pin on chip as an output, initially released
// (high, the reset input is active-low).
func NewRealResetLine(chipName string, pin int) (*RealResetLine, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(1))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request reset pin %d: %w", pin, err)
	}

	return &RealResetLine{chip: chip, line: line}, nil
}

// Pulse pulls the reset pin low for d, then releases it.
func (r *RealResetLine) Pulse(d time.Duration) error {
	if err := r.line.SetValue(0); err != nil {
		return fmt.Errorf("assert reset: %w", err)
	}
	time.Sleep(d)
	if err := r.line.SetValue(1); err != nil {
		return fmt.Errorf("release reset: %w", err)
	}
	return nil
}

// Close releases GPIO resources.
// Reconfigures the pin as input so the module is not held by a stale level
// across a restart of the daemon.
func (r *RealResetLine) Close() error {
	var errs []error
	if r.line != nil {
		if err := r.line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure reset pin: %w", err))
		}
		if err := r.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close reset pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
