package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ramp_metrics/internal/feature/volumes/domain"
	"ramp_metrics/internal/feature/volumes/domain/entity"
)

// MaxRangeDays はリクエスト可能な最大日数です（約10年）。
const MaxRangeDays = 3660

// VolumeQuery は集計リクエストです。Month（YYYY-MM）か Start/End（YYYY-MM-DD）のどちらかを指定します。
// どちらも空の場合は当月を対象にします。
type VolumeQuery struct {
	Month string
	Start string
	End   string
}

// VolumesUsecase は日次・週次・月次の取得を束ねて1つのレスポンスを組み立てます。
type VolumesUsecase struct {
	daily   *DailyFetcher
	monthly *MonthlyFetcher
	flusher Flusher
	now     Clock
}

// NewVolumesUsecase はVolumesUsecaseの新しいインスタンスを生成します。
func NewVolumesUsecase(daily *DailyFetcher, monthly *MonthlyFetcher, flusher Flusher, now Clock) *VolumesUsecase {
	if now == nil {
		now = time.Now
	}
	return &VolumesUsecase{daily: daily, monthly: monthly, flusher: flusher, now: now}
}

// GetVolumes は範囲を解決し、日次と月次を並行に取得したうえで週次を集計します。
// 月次は要求範囲に関係なく常に当年を対象にします。
// いずれかの取得が失敗した場合はリクエスト全体を失敗とし、部分的な結果は返しません。
func (u *VolumesUsecase) GetVolumes(ctx context.Context, q VolumeQuery) (*entity.Volumes, error) {
	r, selectedMonth, err := u.ResolveRange(q)
	if err != nil {
		return nil, err
	}
	year := u.now().Year()

	var (
		daily   []entity.DailyRecord
		monthly []entity.MonthRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		daily, err = u.daily.Fetch(gctx, r)
		return err
	})
	g.Go(func() error {
		var err error
		monthly, err = u.monthly.Fetch(gctx, year)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &entity.Volumes{
		Monthly:       monthly,
		Weekly:        AggregateWeekly(r, daily),
		Daily:         daily,
		StartDate:     r.Start,
		EndDate:       r.End,
		SelectedMonth: selectedMonth,
	}, nil
}

// ResolveRange はクエリから有効な日付範囲を求めます。
// 月指定の場合は選択月（YYYY-MM）も返します。上流を呼ぶ前に不正な入力を弾きます。
func (u *VolumesUsecase) ResolveRange(q VolumeQuery) (entity.DateRange, string, error) {
	start, end, month := strings.TrimSpace(q.Start), strings.TrimSpace(q.End), strings.TrimSpace(q.Month)

	if start != "" || end != "" {
		if start == "" || end == "" {
			return entity.DateRange{}, "", fmt.Errorf("%w: both start and end are required", domain.ErrInvalidRange)
		}
		s, err := entity.ParseDay(start)
		if err != nil {
			return entity.DateRange{}, "", fmt.Errorf("%w: start %q: %v", domain.ErrInvalidRange, start, err)
		}
		e, err := entity.ParseDay(end)
		if err != nil {
			return entity.DateRange{}, "", fmt.Errorf("%w: end %q: %v", domain.ErrInvalidRange, end, err)
		}
		r, err := entity.NewDateRange(s, e)
		if err != nil {
			return entity.DateRange{}, "", err
		}
		if r.Days() > MaxRangeDays {
			return entity.DateRange{}, "", fmt.Errorf("%w: %s spans %d days, max %d", domain.ErrInvalidRange, r, r.Days(), MaxRangeDays)
		}
		return r, "", nil
	}

	if month == "" {
		month = entity.FormatMonth(u.now())
	}
	first, err := entity.ParseMonth(month)
	if err != nil {
		return entity.DateRange{}, "", fmt.Errorf("%w: month %q: %v", domain.ErrInvalidRange, month, err)
	}
	return entity.MonthRange(first), month, nil
}

// FlushCache はキャッシュを全て破棄します。
func (u *VolumesUsecase) FlushCache(ctx context.Context) error {
	if u.flusher == nil {
		return nil
	}
	return u.flusher.Flush(ctx)
}
