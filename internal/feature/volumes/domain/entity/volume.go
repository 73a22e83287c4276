package entity

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Uncategorized is the Amounts key for volume that carries no chain.
const Uncategorized = ""

// Amounts maps a category (a chain such as "base" or "polygon") to an amount.
// A scalar total is the one-category case stored under Uncategorized.
type Amounts map[string]decimal.Decimal

// Add accumulates v under category.
func (a Amounts) Add(category string, v decimal.Decimal) {
	a[category] = a[category].Add(v)
}

// Merge accumulates every category of o into a.
func (a Amounts) Merge(o Amounts) {
	for k, v := range o {
		a.Add(k, v)
	}
}

// Total sums all categories.
func (a Amounts) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range a {
		sum = sum.Add(v)
	}
	return sum
}

// Categories returns the named categories in ascending order. Uncategorized is left out.
func (a Amounts) Categories() []string {
	out := make([]string, 0, len(a))
	for k := range a {
		if k == Uncategorized {
			continue
		}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DailyRecord is the volume of a single calendar day.
// Total is source-provided (buy + sell) and Chains breaks it down per chain.
type DailyRecord struct {
	Day    time.Time
	Buy    decimal.Decimal
	Sell   decimal.Decimal
	Total  decimal.Decimal
	Chains Amounts
}

// ZeroDay returns the placeholder record for a day without activity.
func ZeroDay(day time.Time) DailyRecord {
	return DailyRecord{Day: day, Buy: decimal.Zero, Sell: decimal.Zero, Total: decimal.Zero}
}

// WeekBucket is a contiguous run of at most seven days anchored at the requested start date.
type WeekBucket struct {
	Label     string
	StartDate time.Time
	EndDate   time.Time
	Total     decimal.Decimal
	Chains    Amounts
}

// MonthRecord is the volume of a calendar month. Month is the first day of that month.
type MonthRecord struct {
	Month time.Time
	Buy   decimal.Decimal
	Sell  decimal.Decimal
	Total decimal.Decimal
}

// ZeroMonth returns the placeholder record for a month without activity.
func ZeroMonth(month time.Time) MonthRecord {
	return MonthRecord{Month: month, Buy: decimal.Zero, Sell: decimal.Zero, Total: decimal.Zero}
}

// Volumes is the combined daily, weekly and monthly view for one request.
type Volumes struct {
	Monthly       []MonthRecord
	Weekly        []WeekBucket
	Daily         []DailyRecord
	StartDate     time.Time
	EndDate       time.Time
	SelectedMonth string // set only when the request used a month token
}
