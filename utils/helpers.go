package utils

import (
	"math"
	"time"
	"unicode/utf8"
)

// Round rounds v to the given number of decimal places, half away from zero.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Truncate cuts s to at most maxChars characters (runes, not bytes).
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxChars])
}

// DateOnly drops the clock part of t, keeping its location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween is the calendar-day difference to - from, ignoring the time of day.
func DaysBetween(from, to time.Time) int {
	a := DateOnly(from)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, from.Location())
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// LastFullWeek returns Monday and Sunday of the week before the one containing now.
func LastFullWeek(now time.Time) (time.Time, time.Time) {
	today := DateOnly(now)
	sinceMonday := (int(today.Weekday()) + 6) % 7
	thisMonday := today.AddDate(0, 0, -sinceMonday)
	return thisMonday.AddDate(0, 0, -7), thisMonday.AddDate(0, 0, -1)
}

func StringPtr(s string) *string {
	return &s
}
