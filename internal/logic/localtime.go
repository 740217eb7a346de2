package logic

import "time"

// UTC offsets of the Central European rule.
const (
	OffsetStandard = 1 * time.Hour // CET
	OffsetDaylight = 2 * time.Hour // CEST
)

// transitionHour is the UTC hour at which both changeovers happen.
const transitionHour = 1

// Transitions returns the UTC instants at which daylight time begins (last
// Sunday of March, 01:00 UTC) and ends (last Sunday of October, 01:00 UTC)
// in the given year.
func Transitions(year int) (start, end time.Time) {
	return lastSunday(year, time.March), lastSunday(year, time.October)
}

// lastSunday walks back from the last day of month to the most recent Sunday
// and returns that day at transitionHour UTC.
func lastSunday(year int, month time.Month) time.Time {
	// Day 0 of the following month is the last day of month.
	last := time.Date(year, month+1, 0, transitionHour, 0, 0, 0, time.UTC)
	back := int(last.Weekday()-time.Sunday+7) % 7
	return last.AddDate(0, 0, -back)
}

// IsDST reports whether the UTC instant falls in daylight time. The interval
// is half-open: the March transition instant is already daylight time, the
// October one is already standard time.
func IsDST(utc time.Time) bool {
	utc = utc.UTC()
	start, end := Transitions(utc.Year())
	return !utc.Before(start) && utc.Before(end)
}

// ToLocal converts a Unix timestamp (seconds, UTC) to Central European wall
// clock fields. Transitions are recomputed for the timestamp's own year on
// every call.
func ToLocal(ts int64) LocalTime {
	utc := time.Unix(ts, 0).UTC()
	dst := IsDST(utc)
	offset := OffsetStandard
	if dst {
		offset = OffsetDaylight
	}
	l := utc.Add(offset)
	return LocalTime{
		Year:    l.Year(),
		Month:   l.Month(),
		Day:     l.Day(),
		Hour:    l.Hour(),
		Minute:  l.Minute(),
		Second:  l.Second(),
		Weekday: l.Weekday(),
		IsDST:   dst,
	}
}

// Offset returns the UTC offset applied to produce t.
func (t LocalTime) Offset() time.Duration {
	if t.IsDST {
		return OffsetDaylight
	}
	return OffsetStandard
}

// Zone returns the abbreviation of the applied offset.
func (t LocalTime) Zone() string {
	if t.IsDST {
		return "CEST"
	}
	return "CET"
}

// String formats t as "2006-01-02 15:04:05 CET".
func (t LocalTime) String() string {
	return time.Date(t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second, 0, time.UTC).
		Format("2006-01-02 15:04:05") + " " + t.Zone()
}
