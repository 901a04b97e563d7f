package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/stockbook/internal/app"
	"github.com/odyssey-erp/stockbook/internal/auth"
	"github.com/odyssey-erp/stockbook/internal/catalog"
	"github.com/odyssey-erp/stockbook/internal/charts"
	jobmetrics "github.com/odyssey-erp/stockbook/internal/jobs"
	"github.com/odyssey-erp/stockbook/internal/observability"
	"github.com/odyssey-erp/stockbook/internal/period"
	"github.com/odyssey-erp/stockbook/internal/platform/cache"
	"github.com/odyssey-erp/stockbook/internal/platform/db"
	"github.com/odyssey-erp/stockbook/internal/sales"
	"github.com/odyssey-erp/stockbook/internal/shared"
	"github.com/odyssey-erp/stockbook/jobs"
)

const healthAddr = ":8081"

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	calendar, err := period.NewCalendar(cfg.AppLocale, loc)
	if err != nil {
		return err
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())
	chartService := charts.NewService(
		catalog.NewRepository(pool),
		sales.NewRepository(pool),
		calendar,
		charts.NewCache(redisClient, cfg.ChartCacheTTL),
		metrics,
		logger,
	)

	warmupJob := jobs.NewChartsWarmupJob(chartService, auth.NewRepository(pool), logger, jobMetrics)
	cleanupJob := &jobs.IdempotencyCleanupJob{Store: shared.NewIdempotencyStore(pool), Logger: logger, Metrics: jobMetrics}

	warmupTask, err := jobs.NewChartsWarmupTask(0)
	if err != nil {
		return err
	}
	cleanupTask, err := jobs.NewIdempotencyCleanupTask(cfg.IdempotencyRetention)
	if err != nil {
		return err
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Location:    loc,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskChartsWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 5 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 3 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		return err
	}

	// Cache bumps from any web process queue a warmup for the owner.
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	bumps := charts.NewCache(redisClient, cfg.ChartCacheTTL)
	if err := bumps.ListenForBumps(ctx, func(ownerID int64) {
		enqueueCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := jobClient.EnqueueChartWarmup(enqueueCtx, ownerID); err != nil {
			logger.Warn("enqueue chart warmup", slog.Int64("owner_id", ownerID), slog.Any("error", err))
		}
	}); err != nil {
		return err
	}

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	mux := chi.NewRouter()
	mux.Route("/jobs", jobs.NewHandler(inspector, logger).MountRoutes)
	mux.Method(http.MethodGet, "/metrics", metrics.Handler())
	healthServer := &http.Server{Addr: healthAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker health server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = healthServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker started", slog.Int("concurrency", cfg.WorkerConcurrency))
	return worker.Run(ctx)
}
