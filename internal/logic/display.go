package logic

import "fmt"

// SensorPlaceholder is shown in place of a reading when the sensor fails.
const SensorPlaceholder = "----  ----"

// Separator returns the character between hours and minutes. With blinking
// enabled the colon is lit on odd seconds only, unless force is set (used
// while a resync is in flight so the operator sees the display is alive).
func Separator(second int, blink, force bool) string {
	if !blink || force || second%2 == 1 {
		return ":"
	}
	return " "
}

// FormatClock returns the large clock line, e.g. "7:05" or "7 05".
func FormatClock(t LocalTime, blink, force bool) string {
	return fmt.Sprintf("%d%s%02d", t.Hour, Separator(t.Second, blink, force), t.Minute)
}

// FormatSensor returns the sensor line, or SensorPlaceholder when r is nil.
func FormatSensor(r *Reading) string {
	if r == nil {
		return SensorPlaceholder
	}
	return fmt.Sprintf("%4.1fC %4.1f%%", r.TemperatureC, r.HumidityPct)
}

// FormatDisplay joins the clock and sensor lines into the text handed to the
// renderer.
func FormatDisplay(clock, sensor string) string {
	return clock + "\n" + sensor
}

// FormatTrace returns the one-line console trace written on every render,
// e.g. "7:05:12 - 21.3C 45.0%".
func FormatTrace(t LocalTime, sensor string) string {
	return fmt.Sprintf("%d:%02d:%02d - %s", t.Hour, t.Minute, t.Second, sensor)
}
