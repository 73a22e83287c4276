package usecase

import (
	"time"

	"github.com/shopspring/decimal"

	"ramp_metrics/internal/feature/volumes/domain/entity"
)

// daysPerWeek は1バケットの日数です。
const daysPerWeek = 7

// AggregateWeekly は日次系列を開始日起点の7日バケットに分割して合計します。
// カレンダー週ではなく r.Start を起点とし、最後のバケットは r.End で打ち切ります（部分週）。
// I/Oを伴わない純粋関数です。範囲外のレコードは参照しません。
func AggregateWeekly(r entity.DateRange, daily []entity.DailyRecord) []entity.WeekBucket {
	totalDays := r.Days()
	numWeeks := (totalDays + daysPerWeek - 1) / daysPerWeek

	buckets := make([]entity.WeekBucket, numWeeks)
	for i := range buckets {
		start := r.Start.AddDate(0, 0, i*daysPerWeek)
		end := start.AddDate(0, 0, daysPerWeek-1)
		if end.After(r.End) {
			end = r.End
		}
		buckets[i] = entity.WeekBucket{
			Label:     weekLabel(start, end),
			StartDate: start,
			EndDate:   end,
			Total:     decimal.Zero,
			Chains:    entity.Amounts{},
		}
	}

	for _, rec := range daily {
		if !r.Contains(rec.Day) {
			continue
		}
		idx := entity.DaysBetween(r.Start, entity.TruncateDay(rec.Day)) / daysPerWeek
		b := &buckets[idx]
		b.Total = b.Total.Add(rec.Total)
		b.Chains.Merge(rec.Chains)
	}
	return buckets
}

func weekLabel(start, end time.Time) string {
	return entity.FormatDay(start) + " - " + entity.FormatDay(end)
}
