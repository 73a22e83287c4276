// Package entity defines the domain models for the volumes feature.
package entity

import (
	"fmt"
	"time"

	"ramp_metrics/internal/feature/volumes/domain"
)

const (
	// DayLayout is the wire format of a civil date.
	DayLayout = "2006-01-02"
	// MonthLayout is the wire format of a month token.
	MonthLayout = "2006-01"
)

// DateRange is an inclusive range of civil dates, both ends normalized to UTC midnight.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a range from two dates. It fails with domain.ErrInvalidRange when start is after end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: TruncateDay(start), End: TruncateDay(end)}
	if r.Start.After(r.End) {
		return DateRange{}, fmt.Errorf("%w: start %s is after end %s", domain.ErrInvalidRange, FormatDay(r.Start), FormatDay(r.End))
	}
	return r, nil
}

// Days returns the inclusive number of days in the range.
func (r DateRange) Days() int {
	return DaysBetween(r.Start, r.End) + 1
}

// Contains reports whether day falls inside the range.
func (r DateRange) Contains(day time.Time) bool {
	d := TruncateDay(day)
	return !d.Before(r.Start) && !d.After(r.End)
}

func (r DateRange) String() string {
	return FormatDay(r.Start) + ".." + FormatDay(r.End)
}

// MonthRange returns the range covering the whole calendar month that starts at first.
// The end is one month after first, minus one day, so leap years and 30/31-day months resolve correctly.
func MonthRange(first time.Time) DateRange {
	start := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.UTC)
	return DateRange{Start: start, End: start.AddDate(0, 1, 0).AddDate(0, 0, -1)}
}

// TruncateDay drops the clock part of t, keeping its civil date, and returns UTC midnight.
func TruncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from a to b. Both must be UTC midnights.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayLayout, s)
}

// FormatDay formats t as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// ParseMonth parses a YYYY-MM token and returns the first day of that month.
func ParseMonth(s string) (time.Time, error) {
	return time.Parse(MonthLayout, s)
}

// FormatMonth formats t as YYYY-MM.
func FormatMonth(t time.Time) string {
	return t.Format(MonthLayout)
}
