package logic

import "time"

// Wake hours and the start of the night period (local hours).
const (
	WakeHourWeekday = 7
	WakeHourWeekend = 8
	NightStartHour  = 20
)

// SelectMode maps a local time to its presentation mode. Nights run from
// NightStartHour until the wake hour, which is one hour later on weekends.
func SelectMode(t LocalTime) Mode {
	wake := WakeHourWeekday
	if t.Weekday == time.Saturday || t.Weekday == time.Sunday {
		wake = WakeHourWeekend
	}
	period := PeriodDay
	if t.Hour >= NightStartHour || t.Hour < wake {
		period = PeriodNight
	}
	return Mode{Period: period, WakeHour: wake}
}
