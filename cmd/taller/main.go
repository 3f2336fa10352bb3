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

	"github.com/taller-erp/taller-erp/internal/app"
	"github.com/taller-erp/taller-erp/internal/customers"
	"github.com/taller-erp/taller-erp/internal/observability"
	"github.com/taller-erp/taller-erp/internal/platform/cache"
	"github.com/taller-erp/taller-erp/internal/platform/db"
	"github.com/taller-erp/taller-erp/internal/portal"
	"github.com/taller-erp/taller-erp/internal/quotes"
	"github.com/taller-erp/taller-erp/internal/rbac"
	"github.com/taller-erp/taller-erp/internal/repairorders"
	"github.com/taller-erp/taller-erp/internal/sales"
	"github.com/taller-erp/taller-erp/internal/shared"
	"github.com/taller-erp/taller-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
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
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var portalCache *portal.Cache
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, portal cache disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		portalCache = portal.NewCache(redisClient, time.Minute)
	}

	enqueuer, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := enqueuer.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	rbacService := rbac.NewService(pool)
	rbacMiddleware := rbac.Middleware{Checker: rbacService, Logger: logger}
	metrics := observability.NewMetrics()

	customerRepo := customers.NewRepository(pool)
	customerService := customers.NewService(customers.ServiceConfig{
		PublicBaseURL: cfg.PublicBaseURL,
		PortalPrefix:  cfg.PortalPrefix,
	}, customerRepo, enqueuer, auditLogger, logger)
	customerHandler := customers.NewHandler(logger, customerService, rbacMiddleware)

	repairRepo := repairorders.NewRepository(pool)
	repairService := repairorders.NewService(repairRepo, customerService, enqueuer, auditLogger, logger)
	repairHandler := repairorders.NewHandler(logger, repairService, rbacMiddleware)

	quoteRepo := quotes.NewRepository(pool)
	quoteService := quotes.NewService(quoteRepo, customerService, enqueuer, logger)
	quoteHandler := quotes.NewHandler(logger, quoteService, rbacMiddleware)

	saleRepo := sales.NewRepository(pool)
	saleService := sales.NewService(saleRepo, logger)
	saleHandler := sales.NewHandler(logger, saleService, rbacMiddleware)

	portalService := portal.NewService(customerService, repairService, quoteService, saleService, portalCache, logger)
	portalHandler := portal.NewHandler(logger, portalService, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		CustomerHandler: customerHandler,
		RepairHandler:   repairHandler,
		QuoteHandler:    quoteHandler,
		SaleHandler:     saleHandler,
		PortalHandler:   portalHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
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
