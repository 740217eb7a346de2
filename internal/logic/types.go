// Package logic contains pure clock logic: local time conversion, presentation
// mode selection, display formatting and input debouncing.
// This package has NO external dependencies (no GPIO, network, OS, or time.Sleep).
// Time is always injectable via parameters.
package logic

import "time"

// LocalTime is a wall-clock reading in Central European time.
type LocalTime struct {
	Year    int
	Month   time.Month
	Day     int
	Hour    int
	Minute  int
	Second  int
	Weekday time.Weekday
	IsDST   bool // true = CEST (+2h), false = CET (+1h)
}

// Period is the day/night half of the presentation mode.
type Period string

const (
	PeriodDay   Period = "DAY"
	PeriodNight Period = "NIGHT"
)

// Mode is the presentation mode handed to the renderer.
type Mode struct {
	Period   Period
	WakeHour int
}

// Reading is a decoded ambient sensor sample.
type Reading struct {
	TemperatureC float64
	HumidityPct  float64
}

// State represents the debounced state of a push button.
type State string

const (
	StateReleased State = "RELEASED"
	StatePressed  State = "PRESSED"
)
