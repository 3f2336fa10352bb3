package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/taller-erp/taller-erp/internal/app"
	"github.com/taller-erp/taller-erp/internal/customers"
	"github.com/taller-erp/taller-erp/internal/notify"
	"github.com/taller-erp/taller-erp/internal/observability"
	"github.com/taller-erp/taller-erp/internal/platform/db"
	"github.com/taller-erp/taller-erp/internal/quotes"
	"github.com/taller-erp/taller-erp/internal/shared"
	"github.com/taller-erp/taller-erp/jobs"
	"github.com/taller-erp/taller-erp/report"
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
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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
	metrics := observability.NewMetrics()

	customerRepo := customers.NewRepository(pool)
	customerService := customers.NewService(customers.ServiceConfig{
		PublicBaseURL: cfg.PublicBaseURL,
		PortalPrefix:  cfg.PortalPrefix,
	}, customerRepo, enqueuer, auditLogger, logger)

	quoteRepo := quotes.NewRepository(pool)
	quoteService := quotes.NewService(quoteRepo, customerService, enqueuer, logger)

	assetStore, err := notify.NewLocalStore(cfg.AssetDir, cfg.PublicBaseURL)
	if err != nil {
		logger.Error("init asset store", slog.Any("error", err))
		os.Exit(1)
	}

	mailer := notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)

	var gateway notify.Gateway
	switch cfg.WhatsAppProvider {
	case "cloud":
		gateway = notify.NewCloudGateway(cfg.WhatsAppAPIURL, cfg.WhatsAppToken, cfg.WhatsAppTimeout)
	case "twilio":
		gateway = notify.NewTwilioGateway(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	}

	dispatcher := notify.NewDispatcher(notify.Config{
		AppName:       cfg.AppName,
		PublicBaseURL: cfg.PublicBaseURL,
		PortalPrefix:  cfg.PortalPrefix,
	}, logger, mailer, gateway, assetStore, metrics)

	notifyJob := &jobs.NotifyCustomerJob{
		AppName:    cfg.AppName,
		Dispatcher: dispatcher,
		Quotes:     quoteService,
		Customers:  customerService,
		PDF:        report.NewClient(cfg.GotenbergURL, cfg.GotenbergTimeout),
		Logger:     logger,
	}
	sweepJob := &jobs.SweepAssetsJob{
		Store:  assetStore,
		TTL:    cfg.AssetTTL,
		Logger: logger,
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeNotifyCustomer, Handler: notifyJob.Handle},
			{Type: jobs.TaskTypeSweepAssets, Handler: sweepJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/30 * * * *", Task: jobs.NewSweepAssetsTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
