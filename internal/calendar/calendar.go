// Package calendar holds the date rules the publication check depends on:
// the "today" string, the run-hour bucket, and the days on which a failed
// check has a known, benign explanation.
package calendar

import (
	"strings"
	"time"
)

// DateLayout is the format of the "today" string used in storage prefixes,
// log markers and redirect targets.
const DateLayout = "2006-01-02"

// DefaultLocation is the wall clock the publisher runs on.
const DefaultLocation = "Europe/London"

// Today formats t as a date string in t's own location.
func Today(t time.Time) string { return t.Format(DateLayout) }

// ParseDay parses a YYYY-MM-DD string at midnight in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
}

// RunHourSegment returns the storage bucket segment for the publisher run
// that a check at t is looking at.
//
// The check runs either just after midnight or just after 1am. Anything other
// than hour 0 maps to the later bucket, which also covers manual runs.
func RunHourSegment(t time.Time) string {
	if t.Hour() == 0 {
		return "0000"
	}
	return "0100"
}

// IsChristmasDay reports whether t falls on 25 December.
func IsChristmasDay(t time.Time) bool {
	return t.Month() == time.December && t.Day() == 25
}

// IsClockForwardTime reports whether t is the hour right after the clocks
// went forward on the last Sunday in March.
//
// On that day there is a 00:00 but no 01:00; a check scheduled for "just
// after 1am" wakes up at 02:xx instead. t must be in the publisher's location.
func IsClockForwardTime(t time.Time) bool {
	nextWeek := t.AddDate(0, 0, 7)
	return t.Weekday() == time.Sunday &&
		t.Month() == time.March &&
		t.Hour() == 2 &&
		nextWeek.Month() == time.April
}

// LoadLocation resolves an IANA zone name, defaulting to DefaultLocation.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultLocation
	}
	return time.LoadLocation(name)
}
