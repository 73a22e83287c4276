package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ramp_metrics/internal/app/config"
	"ramp_metrics/internal/app/di"
	"ramp_metrics/internal/feature/volumes/adapters"
	"ramp_metrics/internal/feature/volumes/domain/entity"
	"ramp_metrics/internal/feature/volumes/usecase"
	infraredis "ramp_metrics/internal/platform/redis"
	"ramp_metrics/internal/platform/scheduler"
	"ramp_metrics/internal/shared/ratelimiter"
)

func main() {
	days := flag.Int("days", 0, "number of days up to today to ingest (default ingest.days)")
	once := flag.Bool("once", false, "run a single ingest even when ingest.cron is set")
	flag.Parse()

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
	if *days > 0 {
		cfg.Ingest.Days = *days
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	if cfg.Upstream.Kind == config.UpstreamHTTP {
		log.Fatal("ingest writes the rollup table; set upstream.kind to postgres or sqlite")
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

	gdb, err := di.OpenDatabase(cfg.Upstream)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	remote, err := di.NewRampAPI(cfg.Upstream)
	if err != nil {
		log.Fatal(err)
	}

	// 取り込み後に API サーバーの Redis キャッシュを破棄する。メモリキャッシュは別プロセスなので対象外
	var flusher usecase.Flusher
	if cfg.Cache.Backend == config.CacheRedis {
		rdb, err := infraredis.NewRedisClient(ctx, infraredis.LoadConfigFromEnv())
		if err != nil {
			log.Println("[WARN] Redis unavailable. Cached results will expire on their own.")
		} else {
			defer func() { _ = rdb.Close() }()
			store, _ := di.NewCacheStore(cfg.Cache, rdb)
			flusher = store
		}
	}

	rate := max(cfg.Upstream.RatePerSecond, 1)
	uc := usecase.NewIngestUsecase(remote, adapters.NewVolumeRepository(gdb), flusher, ratelimiter.NewRateLimiter(rate, time.Second))

	run := func() {
		end := entity.TruncateDay(now())
		r, err := entity.NewDateRange(end.AddDate(0, 0, -(cfg.Ingest.Days-1)), end)
		if err != nil {
			slog.Error("failed to build ingest range", "error", err)
			return
		}
		runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
		defer cancel()
		if err := uc.IngestRange(runCtx, r); err != nil {
			slog.Error("ingest failed", "range", r.String(), "error", err)
			return
		}
		slog.Info("ingest ok", "range", r.String())
	}

	if cfg.Ingest.Cron == "" || *once {
		run()
		return
	}

	sched := scheduler.New(loc)
	if err := sched.Add("ingest", cfg.Ingest.Cron, run); err != nil {
		log.Fatal(err)
	}
	sched.Start()
	<-ctx.Done()
	<-sched.Stop().Done()
}
