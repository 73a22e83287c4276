package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"ramp_metrics/internal/feature/volumes/domain/entity"
	"ramp_metrics/internal/shared/ratelimiter"
)

// VolumeWriter は日次ボリューム行をロールアップテーブルへ書き込むリポジトリです。
type VolumeWriter interface {
	UpsertRows(ctx context.Context, rows []entity.VolumeRow) error
}

// IngestUsecase はリモートのランプAPIから日次行を取得し、DBに永続化するユースケースです。
type IngestUsecase struct {
	remote      VolumeSource
	writer      VolumeWriter
	flusher     Flusher
	rateLimiter ratelimiter.RateLimiterInterface
}

// NewIngestUsecase は新しい IngestUsecase を作成します。flusher は nil でも構いません。
func NewIngestUsecase(remote VolumeSource, writer VolumeWriter, flusher Flusher, rateLimiter ratelimiter.RateLimiterInterface) *IngestUsecase {
	return &IngestUsecase{remote: remote, writer: writer, flusher: flusher, rateLimiter: rateLimiter}
}

// ingestOne は1つの期間の日次行を取得・検証し、一括で挿入（または更新）します。
func (iu *IngestUsecase) ingestOne(ctx context.Context, r entity.DateRange) (int, error) {
	raws, err := iu.remote.FetchDailyRows(ctx, r.Start, r.End)
	if err != nil {
		return 0, fmt.Errorf("fetch daily rows %s: %w", r, err)
	}
	rows := make([]entity.VolumeRow, 0, len(raws))
	for _, raw := range raws {
		row, err := ParseDailyRow(raw)
		if err != nil {
			return 0, err
		}
		if !r.Contains(row.Day) {
			continue
		}
		rows = append(rows, row)
	}
	if err := iu.writer.UpsertRows(ctx, rows); err != nil {
		return 0, fmt.Errorf("upsert %d rows for %s: %w", len(rows), r, err)
	}
	return len(rows), nil
}

// IngestRange は範囲を月単位の期間に分割して取り込みます。
// 1つの期間でエラーが発生しても処理を止めずにログに出力し、次の期間を続けます。
// 1件以上書き込んだ場合は最後にキャッシュを破棄し、新しいデータがすぐに見えるようにします。
func (iu *IngestUsecase) IngestRange(ctx context.Context, r entity.DateRange) error {
	written := 0
	for _, w := range splitByMonth(r) {
		if err := iu.rateLimiter.Wait(ctx); err != nil {
			return err
		}
		n, err := iu.ingestOne(ctx, w)
		if err != nil {
			slog.Error("failed to ingest window", "window", w.String(), "error", err)
			continue
		}
		slog.Info("ingested window", "window", w.String(), "rows", n)
		written += n
	}

	if written > 0 && iu.flusher != nil {
		if err := iu.flusher.Flush(ctx); err != nil {
			// Best effort: entries expire on their own
			slog.Warn("failed to flush volume cache after ingest", "error", err)
		}
	}
	return nil
}

// splitByMonth は範囲をカレンダー月の境界で区切ります。
func splitByMonth(r entity.DateRange) []entity.DateRange {
	var out []entity.DateRange
	for start := r.Start; !start.After(r.End); {
		end := entity.MonthRange(start).End
		if end.After(r.End) {
			end = r.End
		}
		out = append(out, entity.DateRange{Start: start, End: end})
		start = end.AddDate(0, 0, 1)
	}
	return out
}
