package scheduler

import (
	"context"
	"fmt"

	"lead_intel_backend/internal/leads/domain"
	"lead_intel_backend/internal/leads/service"
	"lead_intel_backend/platform/apperr"
	"lead_intel_backend/platform/config"
	"lead_intel_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const (
	defaultConcurrency      = 10
	defaultRescoreBatchSize = 200
)

// LeadProcessor is the part of the leads service the worker drives.
type LeadProcessor interface {
	Ingest(ctx context.Context, raw domain.RawLead) (service.IngestResult, error)
	Rescore(ctx context.Context, batchSize int, dryRun bool) (service.RescoreStats, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	leads  LeadProcessor
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, leads LeadProcessor, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(leads, log)
	w.server = server
	return w, nil
}

func newWorker(leads LeadProcessor, log *logger.Logger) *Worker {
	if log == nil {
		log = logger.Nop()
	}
	w := &Worker{
		mux:   asynq.NewServeMux(),
		leads: leads,
		log:   log,
	}
	w.mux.HandleFunc(TaskIngestLead, w.handleIngestLead)
	w.mux.HandleFunc(TaskRescoreLeads, w.handleRescoreLeads)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("ingest worker stopped", "error", err)
	}
}

func (w *Worker) handleIngestLead(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseIngestLeadPayload(task)
	if err != nil {
		return fmt.Errorf("decode ingest payload: %v: %w", err, asynq.SkipRetry)
	}

	ctx = context.WithValue(ctx, logger.SourceKey, payload.Lead.Source)
	result, err := w.leads.Ingest(ctx, payload.Lead)
	if err != nil {
		// Bad payloads will never succeed; storage errors are worth retrying.
		if apperr.Is(err, apperr.KindValidation) || apperr.Is(err, apperr.KindBadRequest) {
			w.log.WithContext(ctx).Warn("queued signal rejected", "error", err)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	for _, warn := range result.Warnings {
		w.log.WithContext(ctx).Warn("queued signal ingested with warning",
			"leadId", result.Lead.ID, "step", warn.Step, "message", warn.Message)
	}
	return nil
}

func (w *Worker) handleRescoreLeads(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseRescoreLeadsPayload(task)
	if err != nil {
		return fmt.Errorf("decode rescore payload: %v: %w", err, asynq.SkipRetry)
	}

	batch := payload.BatchSize
	if batch < 1 {
		batch = defaultRescoreBatchSize
	}

	stats, err := w.leads.Rescore(ctx, batch, payload.DryRun)
	if err != nil {
		return err
	}
	w.log.Info("rescore finished",
		"scanned", stats.Scanned, "changed", stats.Changed, "skipped", stats.Skipped, "failed", stats.Failed, "dryRun", payload.DryRun)
	return nil
}
