// File: services/scheduler/window.go
package scheduler

import (
	"fmt"
	"time"
)

// DefaultUTCOffsetMinutes is UTC+9 expressed as minutes to add to local time to reach UTC.
const DefaultUTCOffsetMinutes = -540

const dateLayout = "2006-01-02"

// CalendarDate is a day on the calendar with no time or zone attached.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD string. Out-of-range days such as 2024-02-30 are rejected.
func ParseDate(s string) (CalendarDate, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return CalendarDate{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	return CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// String renders the date as YYYY-MM-DD.
func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// AddDays returns the date n days later (or earlier for negative n).
func (d CalendarDate) AddDays(n int) CalendarDate {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	return CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// TimeWindow is the bounded range within which blocks may be placed.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Empty reports whether the window has no positive length.
func (w TimeWindow) Empty() bool {
	return !w.End.After(w.Start)
}

// BuildWindow anchors date at midnight in the fixed offset and adds hourStart/hourEnd.
//
// utcOffsetMinutes follows the "local + offset = UTC" convention, so UTC+9 is -540.
// hourEnd > hourStart is the caller's responsibility; an inverted window is
// returned as is and yields no free time.
func BuildWindow(date CalendarDate, hourStart, hourEnd, utcOffsetMinutes int) TimeWindow {
	midnightUTC := time.Date(date.Year, date.Month, date.Day, 0, 0, 0, 0, time.UTC)
	midnightLocal := midnightUTC.Add(time.Duration(utcOffsetMinutes) * time.Minute)
	return TimeWindow{
		Start: midnightLocal.Add(time.Duration(hourStart) * time.Hour),
		End:   midnightLocal.Add(time.Duration(hourEnd) * time.Hour),
	}
}

// Zone returns a fixed location matching utcOffsetMinutes, for rendering wall-clock times.
func Zone(utcOffsetMinutes int) *time.Location {
	return time.FixedZone("", -utcOffsetMinutes*60)
}

// Today returns the calendar date of now in the fixed offset.
func Today(now time.Time, utcOffsetMinutes int) CalendarDate {
	local := now.In(Zone(utcOffsetMinutes))
	return CalendarDate{Year: local.Year(), Month: local.Month(), Day: local.Day()}
}
