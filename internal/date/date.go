// Package date parses task deadlines and answers calendar questions
// relative to a reference time.
package date

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	dayFormat   = "2006-01-02"
	shortFormat = "1/2/06, 3:04 PM"
	inputFormat = "2006-01-02T15:04"
)

// layouts accepted by Parse, most specific first. Layouts without a zone
// are interpreted in the caller's location.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	inputFormat,
	"2006-01-02 15:04",
	dayFormat,
}

// Parse parses a deadline. It accepts RFC 3339 timestamps, the
// YYYY-MM-DDTHH:MM form used by date-time inputs, and plain YYYY-MM-DD
// (midnight in loc).
func Parse(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty deadline")
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid deadline %q: expected YYYY-MM-DD, YYYY-MM-DDTHH:MM or RFC 3339", s)
}

// StartOfDay returns local midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether t falls on the same calendar day as ref,
// evaluated in ref's location.
func SameDay(t, ref time.Time) bool {
	t = t.In(ref.Location())
	ty, tm, td := t.Date()
	ry, rm, rd := ref.Date()
	return ty == ry && tm == rm && td == rd
}

// EndOfWeek returns midnight of the day that is (7 - weekday) days after
// now's calendar day, where Sunday is weekday 0. On a Sunday that is the
// following Sunday.
func EndOfWeek(now time.Time) time.Time {
	const daysPerWeek = 7
	return StartOfDay(now).AddDate(0, 0, daysPerWeek-int(now.Weekday()))
}

// Short formats t as "1/2/06, 3:04 PM" in t's location.
func Short(t time.Time) string {
	return t.Format(shortFormat)
}

// Input formats t the way Parse's date-time input form expects it.
func Input(t time.Time) string {
	return t.Format(inputFormat)
}

// Day formats t as YYYY-MM-DD.
func Day(t time.Time) string {
	return t.Format(dayFormat)
}

// Weekday returns the English weekday name, e.g. "Monday".
func Weekday(t time.Time) string {
	return t.Weekday().String()
}

// MonthDay formats t as "January 2".
func MonthDay(t time.Time) string {
	return t.Format("January 2")
}
