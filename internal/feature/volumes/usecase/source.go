// Package usecase は取引ボリュームの集計とキャッシュのビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ramp_metrics/internal/feature/volumes/domain"
	"ramp_metrics/internal/feature/volumes/domain/entity"
)

// DefaultCacheTTL は集計結果のキャッシュ保持期間です。
// 当月の累計は新しい取引で変わるため短くしています。
const DefaultCacheTTL = 5 * time.Minute

// VolumeSource は上流データソース（DB や外部 API）を抽象化します。
// 活動のあった日・月の行だけを順不同で返します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type VolumeSource interface {
	// FetchDailyRows は [start, end] の日次行を取得します。
	FetchDailyRows(ctx context.Context, start, end time.Time) ([]entity.RawDailyRow, error)
	// FetchMonthlyRows は指定年の月次行を取得します。
	FetchMonthlyRows(ctx context.Context, year int) ([]entity.RawMonthlyRow, error)
}

// Cache はTTL付きのキー・バリューストアです。cache.Typed が実装します。
type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool)
	Set(ctx context.Context, key string, v T, ttl time.Duration)
}

// Flusher はキャッシュ全体を破棄します。
type Flusher interface {
	Flush(ctx context.Context) error
}

// Clock は現在時刻を返します。テストで差し替えられるように注入します。
type Clock func() time.Time

// ParseDailyRow は上流の日次行をパースします。
// 日付や金額が不正な場合は domain.ErrUpstreamData を返します。
func ParseDailyRow(raw entity.RawDailyRow) (entity.VolumeRow, error) {
	day, err := entity.ParseDay(strings.TrimSpace(raw.Day))
	if err != nil {
		return entity.VolumeRow{}, fmt.Errorf("%w: parse day %q: %v", domain.ErrUpstreamData, raw.Day, err)
	}
	buy, sell, total, err := parseAmounts(raw.Buy, raw.Sell, raw.Total)
	if err != nil {
		return entity.VolumeRow{}, fmt.Errorf("%w: day %s: %v", domain.ErrUpstreamData, raw.Day, err)
	}
	return entity.VolumeRow{
		Day:   day,
		Chain: strings.TrimSpace(raw.Chain),
		Buy:   buy,
		Sell:  sell,
		Total: total,
	}, nil
}

// parseAmounts は buy / sell / total をパースします。
// 空文字はゼロとして扱い、total が空の場合は buy + sell を使います。
func parseAmounts(buyStr, sellStr, totalStr string) (buy, sell, total decimal.Decimal, err error) {
	if buy, err = parseAmount("buy", buyStr); err != nil {
		return
	}
	if sell, err = parseAmount("sell", sellStr); err != nil {
		return
	}
	if strings.TrimSpace(totalStr) == "" {
		total = buy.Add(sell)
		return
	}
	total, err = parseAmount("total", totalStr)
	return
}

func parseAmount(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return v, nil
}
