package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawDailyRow is a per-day row as returned by the upstream source.
// Amounts stay as strings; parsing them is the fetcher's job.
type RawDailyRow struct {
	Day   string // YYYY-MM-DD
	Chain string // optional
	Buy   string
	Sell  string
	Total string
}

// RawMonthlyRow is a per-month row as returned by the upstream source.
type RawMonthlyRow struct {
	Month string // YYYY-MM
	Buy   string
	Sell  string
	Total string
}

// VolumeRow is a parsed upstream row: the volume of one chain on one day.
type VolumeRow struct {
	Day   time.Time
	Chain string
	Buy   decimal.Decimal
	Sell  decimal.Decimal
	Total decimal.Decimal
}
