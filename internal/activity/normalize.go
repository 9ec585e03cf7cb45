// Package activity turns raw application records into canonical calendar
// events and derives the calendar grid, statistics and countdowns from them.
//
// Every function in this package is pure: nothing reads a clock, touches
// storage or logs. Callers pass "now" explicitly.
package activity

import (
	"fmt"
	"strings"
	"time"
)

// NormalizeDate extracts a zero-padded YYYY-MM-DD date from a plain date or
// an ISO datetime string. It reports false for anything that is not a
// string or does not hold a real calendar date.
func NormalizeDate(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	datePart, _, _ := strings.Cut(s, "T")
	parts := strings.Split(datePart, "-")
	if len(parts) < 3 {
		return "", false
	}
	year, ok := digits(parts[0], 4)
	if !ok {
		return "", false
	}
	month, ok := digits(parts[1], 2)
	if !ok {
		return "", false
	}
	day, ok := digits(strings.TrimSpace(parts[2]), 2)
	if !ok {
		return "", false
	}
	if month < 1 || month > 12 || day < 1 || day > DaysInMonth(year, time.Month(month)) {
		return "", false
	}
	return ToISODate(year, time.Month(month), day), true
}

// ExtractTime returns the HH:MM part of an ISO datetime string. Date-only
// input yields false.
func ExtractTime(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	_, timePart, found := strings.Cut(strings.TrimSpace(s), "T")
	if !found {
		return "", false
	}
	fields := strings.Split(timePart, ":")
	if len(fields) < 2 {
		return "", false
	}
	hour, ok := digits(fields[0], 2)
	if !ok || hour > 23 {
		return "", false
	}
	minute, ok := digits(leadingDigits(fields[1]), 2)
	if !ok || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

// ToISODate formats a calendar date as YYYY-MM-DD.
func ToISODate(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

// digits parses a non-empty run of at most maxLen ASCII digits.
func digits(s string, maxLen int) (int, bool) {
	if s == "" || len(s) > maxLen {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// leadingDigits trims a minute field such as "30Z" or "30+02" down to its
// numeric prefix.
func leadingDigits(s string) string {
	for i, r := range s {
		if r < '0' || r > '9' {
			return s[:i]
		}
	}
	return s
}
