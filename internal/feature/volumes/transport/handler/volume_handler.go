// Package handler はvolumesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"ramp_metrics/internal/feature/volumes/domain"
	"ramp_metrics/internal/feature/volumes/domain/entity"
	"ramp_metrics/internal/feature/volumes/transport/http/dto"
	"ramp_metrics/internal/feature/volumes/usecase"
)

// VolumesUsecase はボリューム集計のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type VolumesUsecase interface {
	GetVolumes(ctx context.Context, q usecase.VolumeQuery) (*entity.Volumes, error)
	FlushCache(ctx context.Context) error
}

// VolumesHandler はボリューム集計のHTTPリクエストを処理します。
type VolumesHandler struct {
	uc VolumesUsecase
}

// NewVolumesHandler は指定されたusecaseでVolumesHandlerの新しいインスタンスを生成します。
func NewVolumesHandler(uc VolumesUsecase) *VolumesHandler {
	return &VolumesHandler{uc: uc}
}

// GetVolumes は期間（start/end）または月（month）を受け取り、集計結果をJSONで返します。
//
// エンドポイント例:
// GET /v1/metrics/volumes?start=2025-10-01&end=2025-10-05
// GET /v1/metrics/volumes?month=2025-10
func (h *VolumesHandler) GetVolumes(c *gin.Context) {
	q := usecase.VolumeQuery{
		Month: c.Query("month"),
		Start: c.Query("start"),
		End:   c.Query("end"),
	}

	v, err := h.uc.GetVolumes(c.Request.Context(), q)
	if err != nil {
		status := statusFor(err)
		if status < http.StatusInternalServerError {
			c.JSON(status, dto.ErrorResponse{Error: err.Error()})
			return
		}
		// 5xx の詳細（SQLSTATE や上流のメッセージ）はログのみに残します。
		slog.Error("failed to get volumes", "month", q.Month, "start", q.Start, "end", q.End, "error", err)
		c.JSON(status, dto.ErrorResponse{Error: publicMessage(status)})
		return
	}

	c.JSON(http.StatusOK, toResponse(v))
}

// FlushCache はキャッシュを全て破棄します。
//
// エンドポイント例:
// DELETE /v1/metrics/cache
func (h *VolumesHandler) FlushCache(c *gin.Context) {
	if err := h.uc.FlushCache(c.Request.Context()); err != nil {
		slog.Error("failed to flush cache", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to flush cache"})
		return
	}
	c.Status(http.StatusNoContent)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUpstreamData):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func publicMessage(status int) string {
	if status == http.StatusBadGateway {
		return "upstream data unavailable"
	}
	return "internal server error"
}

func toResponse(v *entity.Volumes) dto.VolumesResponse {
	out := dto.VolumesResponse{
		Monthly:       make([]dto.MonthlyVolume, 0, len(v.Monthly)),
		Weekly:        make([]dto.WeeklyVolume, 0, len(v.Weekly)),
		Daily:         make([]dto.DailyVolume, 0, len(v.Daily)),
		StartDate:     openapi_types.Date{Time: v.StartDate},
		EndDate:       openapi_types.Date{Time: v.EndDate},
		SelectedMonth: v.SelectedMonth,
	}
	for _, m := range v.Monthly {
		out.Monthly = append(out.Monthly, dto.MonthlyVolume{
			Month:   entity.FormatMonth(m.Month),
			BuyUSD:  m.Buy.InexactFloat64(),
			SellUSD: m.Sell.InexactFloat64(),
			Total:   m.Total.InexactFloat64(),
		})
	}
	for _, w := range v.Weekly {
		out.Weekly = append(out.Weekly, dto.WeeklyVolume{
			Week:      w.Label,
			StartDate: openapi_types.Date{Time: w.StartDate},
			EndDate:   openapi_types.Date{Time: w.EndDate},
			Volume:    w.Total.InexactFloat64(),
			Chains:    toChains(w.Chains),
		})
	}
	for _, d := range v.Daily {
		out.Daily = append(out.Daily, dto.DailyVolume{
			Day:     openapi_types.Date{Time: d.Day},
			BuyUSD:  d.Buy.InexactFloat64(),
			SellUSD: d.Sell.InexactFloat64(),
			Total:   d.Total.InexactFloat64(),
			Chains:  toChains(d.Chains),
		})
	}
	return out
}

// unknownChain はチェーン名を持たない行の内訳名です。
const unknownChain = "unknown"

// toChains はチェーン名の昇順で内訳を並べます。
// 名前付きチェーンと混在するチェーン不明分は unknownChain として末尾に加え、内訳の合計を total と一致させます。
// チェーン不明分しかない場合は内訳を返しません。
func toChains(a entity.Amounts) []dto.ChainVolume {
	names := a.Categories()
	out := make([]dto.ChainVolume, 0, len(names)+1)
	if len(names) == 0 {
		return out
	}
	rest, hasRest := a[entity.Uncategorized]
	hasRest = hasRest && !rest.IsZero()
	for _, name := range names {
		v := a[name]
		if name == unknownChain && hasRest {
			v = v.Add(rest)
			hasRest = false
		}
		out = append(out, dto.ChainVolume{Chain: name, Total: v.InexactFloat64()})
	}
	if hasRest {
		out = append(out, dto.ChainVolume{Chain: unknownChain, Total: rest.InexactFloat64()})
	}
	return out
}
