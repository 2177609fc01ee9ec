package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lead_intel_backend/internal/adapters/storage"
	"lead_intel_backend/internal/email"
	"lead_intel_backend/internal/events"
	"lead_intel_backend/internal/leads"
	"lead_intel_backend/internal/leads/repository"
	"lead_intel_backend/internal/leads/service"
	"lead_intel_backend/internal/notification"
	"lead_intel_backend/internal/notification/redispub"
	"lead_intel_backend/internal/scheduler"
	"lead_intel_backend/platform/config"
	"lead_intel_backend/platform/db"
	"lead_intel_backend/platform/logger"
	"lead_intel_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if cfg.GetRedisURL() == "" {
		panic("REDIS_URL is required for the ingest worker")
	}

	log := logger.New(cfg.Env)
	log.Info("starting ingest worker", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	// Alerts raised by queued signals still reach redis subscribers and e-mail.
	var sender email.Sender = email.NoopSender{}
	if cfg.IsSMTPEnabled() {
		sender = email.NewSMTPSender(cfg.GetSMTPHost(), cfg.GetSMTPPort(), cfg.GetSMTPUsername(), cfg.GetSMTPPassword(), cfg.GetSMTPFromAddress(), cfg.GetSMTPFromName())
	}
	var publisher notification.AlertPublisher
	if client, err := redispub.NewClient(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure()); err != nil {
		log.Error("failed to initialize alert publisher", "error", err)
	} else {
		p := redispub.NewPublisher(client, cfg.GetAlertChannel())
		defer p.Close()
		publisher = p
	}
	notification.New(nil, publisher, sender, cfg, log).RegisterHandlers(eventBus)

	var opts []service.Option
	if cfg.IsMinIOEnabled() {
		storageSvc, err := storage.NewObjectStore(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		opts = append(opts, service.WithArchiver(storage.NewRawSignalArchiver(storageSvc, cfg.GetMinioBucketRawSignals())))
	}

	leadService, err := leads.NewService(repository.New(pool), eventBus, validator.New(), cfg, log, opts...)
	if err != nil {
		log.Error("failed to initialize leads service", "error", err)
		panic("failed to initialize leads service: " + err.Error())
	}

	worker, err := scheduler.NewWorker(cfg, leadService, log)
	if err != nil {
		log.Error("failed to initialize ingest worker", "error", err)
		panic("failed to initialize ingest worker: " + err.Error())
	}

	worker.Run(ctx)
	eventBus.Wait()
	log.Info("ingest worker stopped")
}
