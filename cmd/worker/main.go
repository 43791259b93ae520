package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/kirana-store/kirana/internal/app"
	jobmetrics "github.com/kirana-store/kirana/internal/jobs"
	"github.com/kirana-store/kirana/internal/platform/cache"
	"github.com/kirana-store/kirana/internal/platform/db"
	"github.com/kirana-store/kirana/internal/reports"
	"github.com/kirana-store/kirana/internal/shared"
	"github.com/kirana-store/kirana/jobs"
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
	loc, _ := cfg.StoreLocation()

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := jobmetrics.NewMetrics(nil)
	redisOpts := cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}

	reportsService := reports.NewService(reports.NewRepository(pool), nil, reports.Config{
		Location:          loc,
		LowStockThreshold: cfg.LowStockThreshold,
		Logger:            logger,
	})

	sender := jobs.NewWhatsAppSender(cfg.WhatsAppAPIURL, cfg.WhatsAppAPIKey, logger)
	if !sender.Configured() {
		logger.Warn("whatsapp api not configured, order confirmations will only be logged")
	}
	notifyJob := jobs.NewOrderNotificationJob(sender, cfg.StoreName, logger, metrics)
	lowStockJob := jobs.NewLowStockScanJob(reportsService, logger, metrics)
	cleanupJob := jobs.NewIdempotencyCleanupJob(shared.NewIdempotencyStore(pool), 0, logger, metrics)

	lowStockTask, err := jobs.NewLowStockScanTask("cron")
	if err != nil {
		logger.Error("build low stock task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: cache.QueueOpt(redisOpts),
		Logger:    logger,
		Location:  loc,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskOrderNotify, Handler: notifyJob.Handle},
			{Type: jobs.TaskLowStockScan, Handler: lowStockJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.LowStockScanCron, Task: lowStockTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 3 * * *", Task: jobs.NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
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
