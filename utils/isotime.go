package utils

import (
	"fmt"
	"time"
)

// ISOLayout renders instants in UTC with millisecond precision, e.g. 2024-03-01T00:00:00.000Z.
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatISO renders t in UTC using ISOLayout.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// ParseISO accepts any RFC 3339 instant, with or without fractional seconds.
func ParseISO(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid RFC 3339 instant %q: %w", s, err)
	}
	return t, nil
}
