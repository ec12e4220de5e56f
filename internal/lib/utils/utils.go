// Package utils contains small helper functions used across the project.
//
// These are usually generic helpers that don't belong to a specific domain.
package utils

import (
	"os"
	"strings"
	"time"
	"unicode"
)

// ISODate is the layout of dates exchanged with forms and SQL Server.
const ISODate = "2006-01-02"

// BRDate is the layout dates are shown with.
const BRDate = "02/01/2006"

// DigitsOnly strips every non-digit rune.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// LastFolder returns the last segment of a Windows or POSIX path, or
// fallback when there is none.
func LastFolder(path, fallback string) string {
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' })
	if len(parts) == 0 {
		return fallback
	}
	return parts[len(parts)-1]
}

// MonthBounds returns the first and last day of t's month as ISO dates.
func MonthBounds(t time.Time) (string, string) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1)
	return first.Format(ISODate), last.Format(ISODate)
}

// ParseISODate parses a YYYY-MM-DD date in the local zone.
func ParseISODate(s string) (time.Time, error) {
	return time.ParseInLocation(ISODate, strings.TrimSpace(s), time.Local)
}

// BRFromISO converts YYYY-MM-DD into dd/mm/yyyy. Unparseable input is
// returned unchanged.
func BRFromISO(s string) string {
	t, err := ParseISODate(s)
	if err != nil {
		return s
	}
	return t.Format(BRDate)
}

// BRRange renders "dd/mm/yyyy a dd/mm/yyyy".
func BRRange(start, end string) string {
	return BRFromISO(start) + " a " + BRFromISO(end)
}

// SameMonth reports whether two ISO dates fall in the same year and month.
func SameMonth(start, end string) bool {
	a, err := ParseISODate(start)
	if err != nil {
		return false
	}
	b, err := ParseISODate(end)
	if err != nil {
		return false
	}
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// Ratio returns num/den*100, or 0 when den is 0.
func Ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den * 100
}

// Growth returns (cur-prev)/prev*100, or 0 when prev is 0.
func Growth(cur, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}

// Hostname returns the machine name or "unknown".
func Hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "unknown"
	}
	return h
}

// HasControl reports whether s contains control characters.
func HasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}
