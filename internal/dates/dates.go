// Package dates holds calendar-day helpers. A day is represented as a
// time.Time at midnight UTC carrying the caller's local year, month and day.
package dates

import (
	"fmt"
	"time"
)

const Layout = "2006-01-02"

// Day drops the time-of-day component of t, keeping the calendar date as seen
// in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q; expected YYYY-MM-DD", s)
	}
	return t, nil
}

func Format(t time.Time) string {
	return t.Format(Layout)
}

func FormatPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := Format(*t)
	return &s
}

func Same(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Yesterday is exactly one calendar day before day.
func Yesterday(day time.Time) time.Time {
	return Day(day).AddDate(0, 0, -1)
}

// Stamp encodes a day as YYYYMMDD.
func Stamp(day time.Time) int {
	y, m, d := day.Date()
	return y*10000 + int(m)*100 + d
}

// Reachable reports whether day is the current calendar date in some zone
// between UTC-12 and UTC+14 at instant now.
func Reachable(day, now time.Time) bool {
	utc := now.UTC()
	d := Day(day)
	return !d.Before(Day(utc.Add(-12*time.Hour))) && !d.After(Day(utc.Add(14*time.Hour)))
}

// Future reports whether day has not started yet anywhere at instant now.
func Future(day, now time.Time) bool {
	return Day(day).After(Day(now.UTC().Add(14 * time.Hour)))
}
