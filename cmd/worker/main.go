package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/tokoprima/tokoprima/internal/accounting/periods"
	"github.com/tokoprima/tokoprima/internal/accounting/reports"
	"github.com/tokoprima/tokoprima/internal/app"
	jobmetrics "github.com/tokoprima/tokoprima/internal/jobs"
	"github.com/tokoprima/tokoprima/internal/observability"
	"github.com/tokoprima/tokoprima/internal/platform/cache"
	"github.com/tokoprima/tokoprima/internal/platform/db"
	"github.com/tokoprima/tokoprima/internal/shared"
	"github.com/tokoprima/tokoprima/jobs"
)

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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, report cache disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)

	periodsRepo := periods.NewRepository(pool)
	periodsService := periods.NewService(periodsRepo, auditLogger)

	var reportCache *reports.Cache
	if redisClient != nil {
		reportCache = reports.NewCache(redisClient, cfg.ReportCacheTTL, logger)
	}
	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(reportsRepo, periodsService, reportCache)

	jm := jobmetrics.NewMetrics(nil)
	integrityJob := jobs.NewGLIntegrityJob(reportsService, periodsService, metrics, logger, jm)
	warmupJob := jobs.NewReportWarmupJob(reportsService, logger, jm)

	integrityTask, err := jobs.NewGLIntegrityTask(jobs.GLIntegrityPayload{})
	if err != nil {
		logger.Error("build integrity task", slog.Any("error", err))
		os.Exit(1)
	}
	warmupTask, err := jobs.NewReportWarmupTask(jobs.ReportWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeGLIntegrity, Handler: integrityJob.Handle},
			{Type: jobs.TaskTypeReportWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "45 1 * * *", Task: integrityTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "*/15 * * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(2)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
