// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Probe は依存先（DB・Redis など）の疎通を確認します。
type Probe func(ctx context.Context) error

const probeTimeout = 2 * time.Second

// Health は依存先を確認しない /healthz ハンドラーです。
func Health(c *gin.Context) {
	NewHealth(nil)(c)
}

// NewHealth は probes を順に確認する /healthz ハンドラーを返します。
// 1つでも失敗した場合は 503 と失敗した依存先の名前を返します。
func NewHealth(probes map[string]Probe) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
		defer cancel()

		failed := map[string]string{}
		for name, probe := range probes {
			if err := probe(ctx); err != nil {
				failed[name] = err.Error()
			}
		}

		status := http.StatusOK
		if len(failed) > 0 {
			status = http.StatusServiceUnavailable
		}
		if c.Request.Method == http.MethodHead {
			c.Status(status)
			return
		}
		if len(failed) > 0 {
			c.JSON(status, gin.H{"status": "degraded", "failed": failed})
			return
		}
		c.JSON(status, gin.H{"status": "ok"})
	}
}
