package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramp_metrics/internal/feature/volumes/domain"
)

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDay(s)
	require.NoError(t, err)
	return d
}

func TestNewDateRange(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)

	r, err := NewDateRange(time.Date(2025, 10, 1, 23, 30, 0, 0, tokyo), time.Date(2025, 10, 5, 1, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, mustDay(t, "2025-10-01"), r.Start, "civil date is kept, clock part dropped")
	assert.Equal(t, mustDay(t, "2025-10-05"), r.End)
	assert.Equal(t, 5, r.Days())
	assert.Equal(t, "2025-10-01..2025-10-05", r.String())

	_, err = NewDateRange(mustDay(t, "2025-10-05"), mustDay(t, "2025-10-01"))
	assert.True(t, errors.Is(err, domain.ErrInvalidRange))
}

func TestDateRange_Contains(t *testing.T) {
	r, err := NewDateRange(mustDay(t, "2025-10-01"), mustDay(t, "2025-10-05"))
	require.NoError(t, err)

	tests := []struct {
		day  string
		want bool
	}{
		{"2025-09-30", false},
		{"2025-10-01", true},
		{"2025-10-03", true},
		{"2025-10-05", true},
		{"2025-10-06", false},
	}
	for _, tt := range tests {
		t.Run(tt.day, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Contains(mustDay(t, tt.day)))
		})
	}
	assert.True(t, r.Contains(time.Date(2025, 10, 5, 23, 59, 59, 0, time.UTC)), "time of day is ignored")
}

func TestMonthRange(t *testing.T) {
	tests := []struct {
		month    string
		wantEnd  string
		wantDays int
	}{
		{"2024-02", "2024-02-29", 29},
		{"2025-02", "2025-02-28", 28},
		{"2100-02", "2100-02-28", 28},
		{"2000-02", "2000-02-29", 29},
		{"2025-04", "2025-04-30", 30},
		{"2025-12", "2025-12-31", 31},
	}
	for _, tt := range tests {
		t.Run(tt.month, func(t *testing.T) {
			first, err := ParseMonth(tt.month)
			require.NoError(t, err)
			r := MonthRange(first)
			assert.Equal(t, first, r.Start)
			assert.Equal(t, mustDay(t, tt.wantEnd), r.End)
			assert.Equal(t, tt.wantDays, r.Days())
		})
	}
}

func TestParseAndFormat(t *testing.T) {
	d, err := ParseDay("2025-10-03")
	require.NoError(t, err)
	assert.Equal(t, "2025-10-03", FormatDay(d))
	assert.Equal(t, "2025-10", FormatMonth(d))
	assert.Equal(t, time.UTC, d.Location())

	m, err := ParseMonth("2025-10")
	require.NoError(t, err)
	assert.Equal(t, mustDay(t, "2025-10-01"), m)

	for _, bad := range []string{"", "2025-13-01", "2025-02-30", "03/10/2025", "2025-10"} {
		_, err := ParseDay(bad)
		assert.Error(t, err, "ParseDay(%q)", bad)
	}
	for _, bad := range []string{"", "2025-13", "2025-1", "2025-10-01"} {
		_, err := ParseMonth(bad)
		assert.Error(t, err, "ParseMonth(%q)", bad)
	}
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween(mustDay(t, "2025-10-01"), mustDay(t, "2025-10-01")))
	assert.Equal(t, 366, DaysBetween(mustDay(t, "2024-01-01"), mustDay(t, "2025-01-01")))
	assert.Equal(t, 1, DaysBetween(mustDay(t, "2024-12-31"), mustDay(t, "2025-01-01")))
}
