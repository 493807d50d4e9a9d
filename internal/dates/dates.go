// Package dates interprets the ISO-like date strings exchanged with the backend.
// Values stay opaque strings everywhere else and are only parsed for comparison.
package dates

import (
	"strings"
	"time"
)

const (
	displayLayout = "02/01/2006"
	inputLayout   = "2006-01-02"
)

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	inputLayout,
}

// Parse reads s using the accepted layouts. Values without a zone are UTC.
func Parse(s string) (time.Time, bool) {
	return parseIn(s, time.UTC)
}

// parseIn reads s, placing zone-less values in loc.
func parseIn(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// day truncates t to its calendar date, expressed at UTC midnight so that
// subtraction counts whole days regardless of DST.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dueDay is the calendar day of s as seen from now's zone. A plain date names
// that day in now's zone; a timestamp with an offset is converted first.
func dueDay(s string, now time.Time) (time.Time, bool) {
	t, ok := parseIn(s, now.Location())
	if !ok {
		return time.Time{}, false
	}
	return day(t.In(now.Location())), true
}

// IsPast reports whether s falls on a calendar day strictly before now's.
func IsPast(s string, now time.Time) bool {
	due, ok := dueDay(s, now)
	if !ok {
		return false
	}
	return due.Before(day(now))
}

// DelayDays is the number of whole days s lies behind now, or 0 when s is not past.
func DelayDays(s string, now time.Time) int {
	due, ok := dueDay(s, now)
	if !ok {
		return 0
	}
	d := int(day(now).Sub(due).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// DaysBetween returns end minus start in whole days.
func DaysBetween(start, end string) (int, bool) {
	s, ok := Parse(start)
	if !ok {
		return 0, false
	}
	e, ok := Parse(end)
	if !ok {
		return 0, false
	}
	return int(day(e).Sub(day(s)).Hours() / 24), true
}

// InRange reports whether s lies strictly between start and end.
func InRange(s, start, end string) bool {
	t, ok := Parse(s)
	if !ok {
		return false
	}
	a, ok := Parse(start)
	if !ok {
		return false
	}
	b, ok := Parse(end)
	if !ok {
		return false
	}
	return t.After(a) && t.Before(b)
}

// Format renders s as DD/MM/YYYY, or returns it untouched when unparseable.
func Format(s string) string {
	t, ok := Parse(s)
	if !ok {
		return s
	}
	return t.Format(displayLayout)
}

// FormatForInput renders s as YYYY-MM-DD, or returns it untouched when unparseable.
func FormatForInput(s string) string {
	t, ok := Parse(s)
	if !ok {
		return s
	}
	return t.Format(inputLayout)
}

func Today(now time.Time) string {
	return now.Format(inputLayout)
}

func DaysAgo(now time.Time, n int) string {
	return now.AddDate(0, 0, -n).Format(inputLayout)
}

func DaysFromNow(now time.Time, n int) string {
	return now.AddDate(0, 0, n).Format(inputLayout)
}
