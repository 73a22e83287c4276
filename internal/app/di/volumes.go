package di

import (
	"time"

	"ramp_metrics/internal/feature/volumes/domain/entity"
	"ramp_metrics/internal/feature/volumes/transport/handler"
	"ramp_metrics/internal/feature/volumes/usecase"
	"ramp_metrics/internal/platform/cache"
)

// NewVolumesUsecase wires the fetchers to typed views of one shared store.
func NewVolumesUsecase(source usecase.VolumeSource, store cache.Store, ttl time.Duration, now usecase.Clock) *usecase.VolumesUsecase {
	daily := usecase.NewDailyFetcher(source, cache.NewTyped[[]entity.DailyRecord](store), ttl)
	monthly := usecase.NewMonthlyFetcher(source, cache.NewTyped[[]entity.MonthRecord](store), ttl, now)
	return usecase.NewVolumesUsecase(daily, monthly, store, now)
}

// NewVolumesHandler creates the HTTP handler for the volumes feature.
func NewVolumesHandler(source usecase.VolumeSource, store cache.Store, ttl time.Duration, now usecase.Clock) *handler.VolumesHandler {
	return handler.NewVolumesHandler(NewVolumesUsecase(source, store, ttl, now))
}
