package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Farhaan96/CollisionOS-sub000/cmd/collisionos/cli"
	"github.com/Farhaan96/CollisionOS-sub000/internal/app"
	"github.com/Farhaan96/CollisionOS-sub000/internal/importer"
	"github.com/Farhaan96/CollisionOS-sub000/internal/platform/cache"
	"github.com/Farhaan96/CollisionOS-sub000/internal/platform/db"
	"github.com/Farhaan96/CollisionOS-sub000/internal/shared"
	"github.com/Farhaan96/CollisionOS-sub000/internal/vendor"
	"github.com/Farhaan96/CollisionOS-sub000/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "import":
			os.Exit(runImport(os.Args[2:]))
		case "bootstrap-vendors":
			os.Exit(runBootstrapVendors(os.Args[2:]))
		}
	}

	runServer()
}

// runBootstrapVendors seeds the default vendor set for a shop:
// collisionos bootstrap-vendors -shop 1
func runBootstrapVendors(args []string) int {
	fs := flag.NewFlagSet("bootstrap-vendors", flag.ExitOnError)
	shopID := fs.Int64("shop", 0, "shop id to seed vendors for")
	_ = fs.Parse(args)
	if *shopID <= 0 {
		fmt.Fprintln(os.Stderr, "bootstrap-vendors: shop id required")
		return 1
	}

	ctx := context.Background()
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		return 1
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect postgres:", err)
		return 1
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect redis:", err)
		return 1
	}
	defer func() { _ = redisClient.Close() }()

	vendorRepo := vendor.NewRepository(pool)
	vendorCache := vendor.NewCache(redisClient, cfg.VendorCacheTTL)
	vendorService := vendor.NewService(logger, vendorRepo, vendorCache)
	if err := vendorService.Bootstrap(ctx, *shopID); err != nil {
		fmt.Fprintln(os.Stderr, "bootstrap vendors:", err)
		return 1
	}
	fmt.Printf("seeded default vendors for shop %d\n", *shopID)
	return 0
}

// runImport enqueues estimate files for the worker:
// collisionos import -shop 1 [-pause-on-error] file.ems [file.xml ...]
func runImport(args []string) int {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	shopID := fs.Int64("shop", 0, "shop id owning the estimates")
	pauseOnError := fs.Bool("pause-on-error", false, "stop the batch at the first failing file")
	_ = fs.Parse(args)

	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		return 1
	}

	files, err := cli.LoadFiles(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	importCLI, err := cli.NewImportCLI(cfg.RedisAddr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect redis:", err)
		return 1
	}
	defer func() { _ = importCLI.Close() }()

	info, err := importCLI.EnqueueBatch(context.Background(), *shopID, *pauseOnError, files)
	if err != nil {
		fmt.Fprintln(os.Stderr, "enqueue batch:", err)
		return 1
	}
	fmt.Printf("enqueued %d file(s) as task %s on queue %s\n", len(files), info.ID, info.Queue)
	return 0
}

func runServer() {
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

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:     logger,
		Config:     cfg,
		Pool:       pool,
		Redis:      redisClient,
		JobHandler: jobs.NewHandler(inspector, logger),
		Imports:    importer.NewRepository(pool),
		Audit:      shared.NewAuditLogger(pool),
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
