package core

import (
	"strings"
	"time"
)

// DateFormat is the calendar date layout embedded in snapshot filenames.
const DateFormat = "2006-01-02"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Date truncates t to UTC midnight; snapshot dates carry day granularity only.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD) at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}
