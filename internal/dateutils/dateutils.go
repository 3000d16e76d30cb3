// Package dateutils provides the date layouts and period arithmetic used by
// ingest, export and summaries.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Common date format constants used throughout the application
const (
	DateLayoutISO   = "2006-01-02"
	DateLayoutSwiss = "02.01.2006"
	DateLayoutFull  = "2006-01-02 15:04:05"
)

var whitespace = regexp.MustCompile(`\s+`)

// CleanDateString trims and collapses whitespace in a date string
func CleanDateString(dateStr string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	if date.IsZero() {
		return ""
	}
	return date.Format(DateLayoutISO)
}

// ToSwissFormat formats a time.Time as DD.MM.YYYY (Swiss format)
func ToSwissFormat(date time.Time) string {
	if date.IsZero() {
		return ""
	}
	return date.Format(DateLayoutSwiss)
}

// StartOfMonth returns the first instant of the month for a given date
func StartOfMonth(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
}

// StartOfQuarter returns the first instant of the calendar quarter for a given date
func StartOfQuarter(date time.Time) time.Time {
	month := time.Month((int(date.Month())-1)/3*3 + 1)
	return time.Date(date.Year(), month, 1, 0, 0, 0, 0, date.Location())
}

// StartOfYear returns the first instant of the year for a given date
func StartOfYear(date time.Time) time.Time {
	return time.Date(date.Year(), time.January, 1, 0, 0, 0, 0, date.Location())
}

// Quarter returns the calendar quarter (1-4) of a date
func Quarter(date time.Time) int {
	return (int(date.Month())-1)/3 + 1
}

// PeriodBounds returns the half-open interval [start, end) of the month,
// quarter or year containing date. Bounds are computed in date's location.
func PeriodBounds(date time.Time, period string) (time.Time, time.Time, error) {
	switch strings.ToLower(period) {
	case "month":
		start := StartOfMonth(date)
		return start, start.AddDate(0, 1, 0), nil
	case "quarter":
		start := StartOfQuarter(date)
		return start, start.AddDate(0, 3, 0), nil
	case "year":
		start := StartOfYear(date)
		return start, start.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unsupported period %q (must be month, quarter or year)", period)
	}
}

// PeriodLabel renders the period containing date, e.g. "2026-03", "2026-Q1" or "2026".
func PeriodLabel(date time.Time, period string) string {
	switch strings.ToLower(period) {
	case "month":
		return date.Format("2006-01")
	case "quarter":
		return fmt.Sprintf("%d-Q%d", date.Year(), Quarter(date))
	default:
		return fmt.Sprintf("%d", date.Year())
	}
}
