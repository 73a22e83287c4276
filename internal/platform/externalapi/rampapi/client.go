package rampapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ramp_metrics/internal/feature/volumes/domain/entity"
	"ramp_metrics/internal/feature/volumes/usecase"
	"ramp_metrics/internal/platform/externalapi/rampapi/dto"
	"ramp_metrics/internal/shared/ratelimiter"
)

// RampAPI はリモートのランプAPIから日次・月次の行を取得するVolumeSource実装です。
type RampAPI struct {
	cfg     Config
	client  *http.Client
	limiter ratelimiter.RateLimiterInterface
}

// RampAPIがVolumeSourceを実装していることをコンパイル時に検証します。
var _ usecase.VolumeSource = (*RampAPI)(nil)

// NewRampAPI は指定された設定とHTTPクライアントでRampAPIの新しいインスタンスを生成します。
// limiter が nil の場合はリクエストを間引きません。
func NewRampAPI(cfg Config, client *http.Client, limiter ratelimiter.RateLimiterInterface) *RampAPI {
	return &RampAPI{cfg: cfg, client: client, limiter: limiter}
}

// FetchDailyRows は /daily から [start, end] の日次行を取得します。
func (a *RampAPI) FetchDailyRows(ctx context.Context, start, end time.Time) ([]entity.RawDailyRow, error) {
	q := url.Values{}
	q.Set("start", entity.FormatDay(start))
	q.Set("end", entity.FormatDay(end))

	var body dto.DailyResponse
	if err := a.get(ctx, "/daily", q, &body); err != nil {
		return nil, err
	}
	if body.Status == "error" {
		return nil, fmt.Errorf("rampapi: %s", body.Message)
	}

	rows := make([]entity.RawDailyRow, 0, len(body.Rows))
	for _, r := range body.Rows {
		rows = append(rows, entity.RawDailyRow{
			Day:   r.Day,
			Chain: r.Chain,
			Buy:   r.Buy.String(),
			Sell:  r.Sell.String(),
			Total: r.Total.String(),
		})
	}
	return rows, nil
}

// FetchMonthlyRows は /monthly から指定年の月次行を取得します。
func (a *RampAPI) FetchMonthlyRows(ctx context.Context, year int) ([]entity.RawMonthlyRow, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))

	var body dto.MonthlyResponse
	if err := a.get(ctx, "/monthly", q, &body); err != nil {
		return nil, err
	}
	if body.Status == "error" {
		return nil, fmt.Errorf("rampapi: %s", body.Message)
	}

	rows := make([]entity.RawMonthlyRow, 0, len(body.Rows))
	for _, r := range body.Rows {
		rows = append(rows, entity.RawMonthlyRow{
			Month: r.Month,
			Buy:   r.Buy.String(),
			Sell:  r.Sell.String(),
			Total: r.Total.String(),
		})
	}
	return rows, nil
}

func (a *RampAPI) get(ctx context.Context, path string, q url.Values, out any) error {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	u := fmt.Sprintf("%s%s?%s", a.cfg.BaseURL, path, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if a.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", a.cfg.APIKey)
	}

	res, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return fmt.Errorf("rampapi http %d", res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("rampapi decode %s: %w", path, err)
	}
	return nil
}
