package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ramp_metrics/internal/feature/volumes/domain"
	"ramp_metrics/internal/feature/volumes/domain/entity"
)

// DailyFetcher は日次ボリュームを取得し、欠けている日をゼロで埋めた密な系列を返します。
type DailyFetcher struct {
	source VolumeSource
	cache  Cache[[]entity.DailyRecord]
	ttl    time.Duration
}

// NewDailyFetcher はDailyFetcherの新しいインスタンスを生成します。ttl が0以下の場合は DefaultCacheTTL を使います。
func NewDailyFetcher(source VolumeSource, cache Cache[[]entity.DailyRecord], ttl time.Duration) *DailyFetcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &DailyFetcher{source: source, cache: cache, ttl: ttl}
}

// Fetch は範囲内の全日について1件ずつ、日付の昇順でレコードを返します。
// キャッシュは上流呼び出しの前にだけ参照し、失敗時のフォールバックには使いません。
func (f *DailyFetcher) Fetch(ctx context.Context, r entity.DateRange) ([]entity.DailyRecord, error) {
	key := dailyKey(r)
	if cached, ok := f.cache.Get(ctx, key); ok {
		slog.Debug("daily volumes cache hit", "key", key)
		return cached, nil
	}

	raws, err := f.source.FetchDailyRows(ctx, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("fetch daily rows %s: %w: %w", r, domain.ErrUpstreamData, err)
	}

	rows := make([]entity.VolumeRow, 0, len(raws))
	for _, raw := range raws {
		row, err := ParseDailyRow(raw)
		if err != nil {
			return nil, fmt.Errorf("fetch daily rows %s: %w", r, err)
		}
		rows = append(rows, row)
	}

	out := densifyDaily(r, rows)
	f.cache.Set(ctx, key, out, f.ttl)
	return out, nil
}

// densifyDaily は疎な行を日付ごとにまとめ、範囲内の全日を埋めます。
// 同じ日の複数行（チェーン別）は合算し、チェーン別内訳に total を積み上げます。
// 範囲外の行は無視します。
func densifyDaily(r entity.DateRange, rows []entity.VolumeRow) []entity.DailyRecord {
	byDay := make(map[string]*entity.DailyRecord, len(rows))
	for _, row := range rows {
		if !r.Contains(row.Day) {
			continue
		}
		k := entity.FormatDay(row.Day)
		rec, ok := byDay[k]
		if !ok {
			z := entity.ZeroDay(row.Day)
			z.Chains = entity.Amounts{}
			rec = &z
			byDay[k] = rec
		}
		rec.Buy = rec.Buy.Add(row.Buy)
		rec.Sell = rec.Sell.Add(row.Sell)
		rec.Total = rec.Total.Add(row.Total)
		rec.Chains.Add(row.Chain, row.Total)
	}

	out := make([]entity.DailyRecord, 0, r.Days())
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		if rec, ok := byDay[entity.FormatDay(d)]; ok {
			out = append(out, *rec)
			continue
		}
		out = append(out, entity.ZeroDay(d))
	}
	return out
}

func dailyKey(r entity.DateRange) string {
	return fmt.Sprintf("daily:%s:%s", entity.FormatDay(r.Start), entity.FormatDay(r.End))
}
