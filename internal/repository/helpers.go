package repository

import (
	"time"
)

const (
	timestampLayout = time.RFC3339
	dateLayout      = "2006-01-02"
)

// formatTimestamp normalizes to UTC so stored timestamps sort as strings.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// parseTimestamp returns the zero time for empty or malformed values.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseDate(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// nowUTC returns the current UTC time formatted as RFC3339.
func nowUTC() string {
	return formatTimestamp(time.Now())
}
