package main

import (
	"context"
	"time"

	"lead_intel_backend/internal/adapters/storage"
	"lead_intel_backend/internal/email"
	"lead_intel_backend/internal/leads/service"
	"lead_intel_backend/internal/notification"
	"lead_intel_backend/internal/notification/redispub"
	"lead_intel_backend/internal/notification/sse"
	"lead_intel_backend/internal/scheduler"
	"lead_intel_backend/platform/config"
	"lead_intel_backend/platform/logger"
)

// initArchiver returns nil when object storage is not configured.
func initArchiver(ctx context.Context, cfg *config.Config, log *logger.Logger) service.RawArchiver {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; raw signal archive disabled")
		return nil
	}

	storageSvc, err := storage.NewObjectStore(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	bucket := cfg.GetMinioBucketRawSignals()
	if err := withRetry(ctx, log, "ensure raw signals bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucket(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "rawSignalsBucket", bucket)

	return storage.NewRawSignalArchiver(storageSvc, bucket)
}

func serviceOptions(archiver service.RawArchiver) []service.Option {
	if archiver == nil {
		return nil
	}
	return []service.Option{service.WithArchiver(archiver)}
}

// initIngestClient returns nil when redis is not configured.
func initIngestClient(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; queued ingestion disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize ingest queue client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func initNotifications(cfg *config.Config, log *logger.Logger) (*notification.Module, func()) {
	var sender email.Sender = email.NoopSender{}
	if cfg.IsSMTPEnabled() {
		sender = email.NewSMTPSender(cfg.GetSMTPHost(), cfg.GetSMTPPort(), cfg.GetSMTPUsername(), cfg.GetSMTPPassword(), cfg.GetSMTPFromAddress(), cfg.GetSMTPFromName())
		log.Info("critical alert e-mails enabled", "recipients", len(cfg.GetAlertEmailRecipients()))
	}

	stream := sse.New(log)

	if cfg.GetRedisURL() == "" {
		return notification.New(stream, nil, sender, cfg, log), nil
	}

	client, err := redispub.NewClient(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		log.Error("failed to initialize alert publisher", "error", err)
		return notification.New(stream, nil, sender, cfg, log), nil
	}
	publisher := redispub.NewPublisher(client, cfg.GetAlertChannel())
	log.Info("alert publisher enabled", "channel", publisher.Channel())

	return notification.New(stream, publisher, sender, cfg, log), func() {
		_ = publisher.Close()
	}
}
