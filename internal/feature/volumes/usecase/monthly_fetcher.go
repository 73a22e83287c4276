package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ramp_metrics/internal/feature/volumes/domain"
	"ramp_metrics/internal/feature/volumes/domain/entity"
)

// MonthlyFetcher は指定年の月次ボリュームを取得し、1月から上限月までをゼロ埋めして返します。
type MonthlyFetcher struct {
	source VolumeSource
	cache  Cache[[]entity.MonthRecord]
	ttl    time.Duration
	now    Clock
}

// NewMonthlyFetcher はMonthlyFetcherの新しいインスタンスを生成します。
func NewMonthlyFetcher(source VolumeSource, cache Cache[[]entity.MonthRecord], ttl time.Duration, now Clock) *MonthlyFetcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MonthlyFetcher{source: source, cache: cache, ttl: ttl, now: now}
}

// Fetch は year の月次レコードを返します。
// 当年の場合は当月まで（未来の月は含めない）、それ以外は12ヶ月分を返します。
// 過去の月で取引がない場合はゼロのレコードになります。
func (f *MonthlyFetcher) Fetch(ctx context.Context, year int) ([]entity.MonthRecord, error) {
	key := monthlyKey(year)
	if cached, ok := f.cache.Get(ctx, key); ok {
		slog.Debug("monthly volumes cache hit", "key", key)
		return cached, nil
	}

	raws, err := f.source.FetchMonthlyRows(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("fetch monthly rows year=%d: %w: %w", year, domain.ErrUpstreamData, err)
	}

	byMonth := make(map[time.Month]*entity.MonthRecord, len(raws))
	for _, raw := range raws {
		m, err := parseMonthToken(raw.Month, year)
		if err != nil {
			return nil, fmt.Errorf("fetch monthly rows year=%d: %w", year, err)
		}
		buy, sell, total, err := parseAmounts(raw.Buy, raw.Sell, raw.Total)
		if err != nil {
			return nil, fmt.Errorf("fetch monthly rows year=%d: %w: month %s: %v", year, domain.ErrUpstreamData, raw.Month, err)
		}
		rec, ok := byMonth[m.Month()]
		if !ok {
			z := entity.ZeroMonth(m)
			rec = &z
			byMonth[m.Month()] = rec
		}
		rec.Buy = rec.Buy.Add(buy)
		rec.Sell = rec.Sell.Add(sell)
		rec.Total = rec.Total.Add(total)
	}

	upper := f.upperMonth(year)
	out := make([]entity.MonthRecord, 0, int(upper))
	for m := time.January; m <= upper; m++ {
		if rec, ok := byMonth[m]; ok {
			out = append(out, *rec)
			continue
		}
		out = append(out, entity.ZeroMonth(time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)))
	}

	f.cache.Set(ctx, key, out, f.ttl)
	return out, nil
}

// upperMonth は当年なら当月、それ以外は12月を返します。
func (f *MonthlyFetcher) upperMonth(year int) time.Month {
	now := f.now()
	if year == now.Year() {
		return now.Month()
	}
	return time.December
}

// parseMonthToken は YYYY-MM をパースし、year 以外の年なら不正な行として扱います。
func parseMonthToken(s string, year int) (time.Time, error) {
	m, err := entity.ParseMonth(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: parse month %q: %v", domain.ErrUpstreamData, s, err)
	}
	if m.Year() != year {
		return time.Time{}, fmt.Errorf("%w: month %q outside year %d", domain.ErrUpstreamData, s, year)
	}
	return m, nil
}

func monthlyKey(year int) string {
	return fmt.Sprintf("monthly:%d", year)
}
