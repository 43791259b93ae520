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
	"github.com/redis/go-redis/v9"

	"github.com/kirana-store/kirana/internal/app"
	"github.com/kirana-store/kirana/internal/auth"
	"github.com/kirana-store/kirana/internal/inventory"
	"github.com/kirana-store/kirana/internal/masterdata/categories"
	"github.com/kirana-store/kirana/internal/masterdata/products"
	"github.com/kirana-store/kirana/internal/observability"
	"github.com/kirana-store/kirana/internal/platform/cache"
	"github.com/kirana-store/kirana/internal/platform/db"
	"github.com/kirana-store/kirana/internal/rbac"
	"github.com/kirana-store/kirana/internal/reports"
	"github.com/kirana-store/kirana/internal/seed"
	"github.com/kirana-store/kirana/internal/shared"
	"github.com/kirana-store/kirana/internal/users"
	"github.com/kirana-store/kirana/jobs"
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
	loc, _ := cfg.StoreLocation()

	if cfg.MigrateOnBoot {
		if err := db.Migrate(cfg.PGDSN, logger); err != nil {
			logger.Error("migrate database", slog.Any("error", err))
			os.Exit(1)
		}
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisOpts := cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	var redisClient *redis.Client
	if client, err := cache.New(ctx, redisOpts); err != nil {
		logger.Warn("redis unavailable, report cache disabled", slog.Any("error", err))
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportCache.ListenForInvalidation(ctx)

	usersService := users.NewService(users.NewRepository(dbpool), auditLogger)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	authService := auth.NewService(usersService, tokens, cfg.AdminUsername, logger)

	rbacMiddleware := rbac.Middleware{Gate: rbac.NewGate(rbac.NewRepository(dbpool)), Logger: logger}

	productsService := products.NewService(products.NewRepository(dbpool), auditLogger, reportCache)
	categoriesService := categories.NewService(categories.NewRepository(dbpool))

	jobClient, err := jobs.NewClient(cache.QueueOpt(redisOpts))
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	inventoryService := inventory.NewService(inventory.NewRepository(dbpool), auditLogger, idempotencyStore, inventory.ServiceConfig{
		Location:      loc,
		OrderUsername: seed.CustomerUsername,
		Metrics:       metrics,
		Cache:         reportCache,
		Logger:        logger,
	}, jobClient)

	reportsService := reports.NewService(reports.NewRepository(dbpool), reportCache, reports.Config{
		Location:          loc,
		LowStockThreshold: cfg.LowStockThreshold,
		Metrics:           metrics,
		Logger:            logger,
	})

	inspector := asynq.NewInspector(cache.QueueOpt(redisOpts))
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Health:            &app.HealthHandler{DB: dbpool, Loc: loc, Logger: logger},
		Authenticate:      authService.RequireToken,
		AuthHandler:       auth.NewHandler(logger, authService),
		UsersHandler:      users.NewHandler(logger, usersService, rbacMiddleware),
		ProductsHandler:   products.NewHandler(logger, productsService, authService.RequireToken, rbacMiddleware),
		CategoriesHandler: categories.NewHandler(logger, categoriesService, authService.RequireToken, rbacMiddleware),
		InventoryHandler:  inventory.NewHandler(logger, inventoryService, authService.RequireToken, rbacMiddleware),
		ReportsHandler:    reports.NewHandler(logger, reportsService, authService.RequireToken, rbacMiddleware),
		JobHandler:        jobs.NewHandler(inspector, logger),
		Seeder:            seed.New(dbpool, seed.Options{AdminUsername: cfg.AdminUsername, AdminPassword: cfg.AdminPassword}),
		Metrics:           metrics,
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
