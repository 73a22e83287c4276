package router

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	volumeshandler "ramp_metrics/internal/feature/volumes/transport/handler"
	"ramp_metrics/internal/platform/http/handler"
)

// NewRouter はAPIのルーティングを組み立てます。
// allowedOrigins に "*" が含まれる場合は全オリジンを許可します。health が nil の場合は依存先を確認しません。
// enableFlush が false の場合、キャッシュ破棄エンドポイントは登録されません。
func NewRouter(allowedOrigins []string, enableFlush bool, health gin.HandlerFunc, volumes *volumeshandler.VolumesHandler) *gin.Engine {
	r := gin.Default()
	r.Use(cors.New(corsConfig(allowedOrigins, enableFlush)))

	// 導通確認用
	if health == nil {
		health = handler.Health
	}
	r.GET("/healthz", health)
	r.HEAD("/healthz", health)

	v1 := r.Group("/v1/metrics")
	{
		v1.GET("/volumes", volumes.GetVolumes)
		if enableFlush {
			v1.DELETE("/cache", volumes.FlushCache)
		}
	}
	// 旧パス
	r.GET("/volumes", volumes.GetVolumes)

	return r
}

func corsConfig(allowedOrigins []string, enableFlush bool) cors.Config {
	methods := []string{"GET", "HEAD", "OPTIONS"}
	if enableFlush {
		methods = append(methods, "DELETE")
	}
	cfg := cors.Config{
		AllowMethods: methods,
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
	}
	return cfg
}
