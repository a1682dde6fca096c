package model

import "time"

// DateFormat is the layout used for calendar dates everywhere.
const DateFormat = "2006-01-02"

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a UTC calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateFormat, s, time.UTC)
}

// StartOfYear returns 1 January of t's year.
func StartOfYear(t time.Time) time.Time {
	return Date(t.Year(), time.January, 1)
}

// EndOfYear returns 31 December of t's year.
func EndOfYear(t time.Time) time.Time {
	return Date(t.Year(), time.December, 31)
}
