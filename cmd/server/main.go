package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"ramp_metrics/internal/app/config"
	"ramp_metrics/internal/app/di"
	"ramp_metrics/internal/app/router"
	"ramp_metrics/internal/platform/http/handler"
	infraredis "ramp_metrics/internal/platform/redis"
	"ramp_metrics/internal/platform/scheduler"
)

func main() {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		log.Println("[INFO] .env not found; using system environment variables")
	}

	cfgPath := os.Getenv("CONFIG_FILE")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal(err)
	}
	now, err := cfg.Clock()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// db（http 上流のときは不要）
	var gdb *gorm.DB
	if cfg.Upstream.Kind != config.UpstreamHTTP {
		gdb, err = di.OpenDatabase(cfg.Upstream)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
	}

	// Redis
	var rdb *redisv9.Client
	if cfg.Cache.Backend == config.CacheRedis {
		if tmp, err := infraredis.NewRedisClient(ctx, infraredis.LoadConfigFromEnv()); err != nil {
			log.Println("[WARN] Redis unavailable. Running with in-memory cache.")
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					log.Println("[ERROR] Failed to close Redis client:", err)
				}
			}()
		}
	}
	store, mem := di.NewCacheStore(cfg.Cache, rdb)

	// 期限切れエントリの掃除
	sched := scheduler.New(loc)
	if mem != nil {
		if err := sched.Every("cache-sweep", cfg.Cache.SweepInterval, func() {
			if n := mem.CleanExpired(); n > 0 {
				slog.Debug("swept expired cache entries", "removed", n, "remaining", mem.Size())
			}
		}); err != nil {
			log.Fatal(err)
		}
	}
	sched.Start()
	defer sched.Stop()

	source, err := di.NewVolumeSource(cfg.Upstream, gdb)
	if err != nil {
		log.Fatalf("failed to create volume source: %v", err)
	}
	volumesH := di.NewVolumesHandler(source, store, cfg.Cache.TTL, now)

	// ヘルスチェックの依存先
	probes := map[string]handler.Probe{}
	if gdb != nil {
		sqlDB, err := gdb.DB()
		if err != nil {
			log.Fatal(err)
		}
		probes["db"] = sqlDB.PingContext
	}
	if rdb != nil {
		probes["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	// ルータ生成
	r := router.NewRouter(cfg.Server.CORSOrigins, cfg.Server.EnableCacheFlush, handler.NewHealth(probes), volumesH)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "upstream", cfg.Upstream.Kind, "cache", cfg.Cache.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("[ERROR] graceful shutdown failed:", err)
	}
}
