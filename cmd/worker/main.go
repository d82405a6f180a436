package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/Farhaan96/CollisionOS-sub000/internal/app"
	"github.com/Farhaan96/CollisionOS-sub000/internal/importer"
	"github.com/Farhaan96/CollisionOS-sub000/internal/platform/cache"
	"github.com/Farhaan96/CollisionOS-sub000/internal/platform/db"
	"github.com/Farhaan96/CollisionOS-sub000/internal/procurement"
	"github.com/Farhaan96/CollisionOS-sub000/internal/shared"
	"github.com/Farhaan96/CollisionOS-sub000/internal/vendor"
	"github.com/Farhaan96/CollisionOS-sub000/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	vendorRepo := vendor.NewRepository(pool)
	vendorCache := vendor.NewCache(redisClient, cfg.VendorCacheTTL)
	vendorResolver := vendor.NewResolver(vendorRepo, vendorCache, logger)

	broadcaster := procurement.NewRedisBroadcaster(redisClient, logger)
	procurementRepo := procurement.NewRepository(pool)
	procurementService := procurement.NewService(logger, procurementRepo, vendorRepo, auditLogger, broadcaster, cfg.TaxRate)

	importRepo := importer.NewRepository(pool)
	importService := importer.NewService(logger, importRepo, vendorResolver, procurementService, idempotencyStore, cfg.ImportConcurrency)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskImportBatch, Handler: jobs.NewImportBatchHandler(logger, importService, redisClient)},
			{Type: jobs.TaskIdempotencyCleanup, Handler: jobs.NewIdempotencyCleanupHandler(logger, idempotencyStore, cfg.IdempotencyRetention)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "45 3 * * *", Task: jobs.NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(2), asynq.Queue(jobs.QueueDefault)}},
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
