package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tokoprima/tokoprima/internal/accounting/accounts"
	"github.com/tokoprima/tokoprima/internal/accounting/gl"
	"github.com/tokoprima/tokoprima/internal/accounting/journals"
	"github.com/tokoprima/tokoprima/internal/accounting/periods"
	"github.com/tokoprima/tokoprima/internal/accounting/reports"
	"github.com/tokoprima/tokoprima/internal/app"
	"github.com/tokoprima/tokoprima/internal/close"
	closehttp "github.com/tokoprima/tokoprima/internal/close/http"
	"github.com/tokoprima/tokoprima/internal/observability"
	"github.com/tokoprima/tokoprima/internal/platform/cache"
	"github.com/tokoprima/tokoprima/internal/platform/db"
	"github.com/tokoprima/tokoprima/internal/shared"
	"github.com/tokoprima/tokoprima/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	accountsRepo := accounts.NewRepository(pool)
	accountsService := accounts.NewService(accountsRepo, auditLogger)
	accountsHandler := accounts.NewHandler(logger, accountsService)

	periodsRepo := periods.NewRepository(pool)
	periodsService := periods.NewService(periodsRepo, auditLogger)
	periodsHandler := periods.NewHandler(logger, periodsService)

	journalsRepo := journals.NewRepository(pool)
	journalsService := journals.NewService(journalsRepo, periodsService, auditLogger)
	journalsService.WithNumberPrefix(cfg.JournalPrefix)
	journalsHandler := journals.NewHandler(logger, journalsService, metrics)

	ledgerRepo := gl.NewRepository(pool)
	ledgerService := gl.NewService(ledgerRepo, periodsService)
	ledgerHandler := gl.NewHandler(logger, ledgerService)

	var reportCache *reports.Cache
	if redisClient != nil {
		reportCache = reports.NewCache(redisClient, cfg.ReportCacheTTL, logger)
	}
	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(reportsRepo, periodsService, reportCache)
	reportsHandler := reports.NewHandler(logger, reportsService)

	closeRepo := close.NewRepository(pool)
	closeService := close.NewService(closeRepo, auditLogger, cfg.RetainedEarningsCode)
	closeService.WithNumberPrefix(cfg.ClosingPrefix)
	closeHandler := closehttp.NewHandler(logger, closeService, metrics)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		AccountsHandler: accountsHandler,
		PeriodsHandler:  periodsHandler,
		JournalsHandler: journalsHandler,
		LedgerHandler:   ledgerHandler,
		ReportsHandler:  reportsHandler,
		CloseHandler:    closeHandler,
		JobsHandler:     jobsHandler,
		Metrics:         metrics,
		Pool:            pool,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
