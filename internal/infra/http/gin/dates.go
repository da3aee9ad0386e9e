package ginserver

import (
	"fmt"
	"strings"
	"time"
)

// parseDate accepts a calendar date or an RFC 3339 instant.
func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD or RFC 3339, got %q", field, raw)
	}
	return t, nil
}

func parseDates(start, end string) (time.Time, time.Time, error) {
	s, err := parseDate("start", start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := parseDate("end", end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return s, e, nil
}
