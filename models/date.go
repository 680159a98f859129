package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the literal date format used at every boundary.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date string. The returned time is the start
// of that calendar day in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("please enter dates as YYYY-MM-DD (e.g., 2026-01-21)")
	}
	return t, nil
}

// FormatDate renders a time as a YYYY-MM-DD date string.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DayOf truncates a timestamp to its calendar day.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
