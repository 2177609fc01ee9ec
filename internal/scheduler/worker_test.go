package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"lead_intel_backend/internal/leads/domain"
	"lead_intel_backend/internal/leads/service"
	"lead_intel_backend/platform/apperr"

	"github.com/hibiken/asynq"
)

type fakeProcessor struct {
	ingested  []domain.RawLead
	ingestErr error
	rescored  []int
	dryRuns   []bool
}

func (f *fakeProcessor) Ingest(_ context.Context, raw domain.RawLead) (service.IngestResult, error) {
	f.ingested = append(f.ingested, raw)
	if f.ingestErr != nil {
		return service.IngestResult{}, f.ingestErr
	}
	return service.IngestResult{Lead: domain.Lead{Name: raw.Name}, Created: true}, nil
}

func (f *fakeProcessor) Rescore(_ context.Context, batchSize int, dryRun bool) (service.RescoreStats, error) {
	f.rescored = append(f.rescored, batchSize)
	f.dryRuns = append(f.dryRuns, dryRun)
	return service.RescoreStats{Scanned: 3, Changed: 1}, nil
}

func ingestTask(t *testing.T, raw domain.RawLead) *asynq.Task {
	t.Helper()
	task, err := NewIngestLeadTask(IngestLeadPayload{Lead: raw, ReceivedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	return task
}

func TestIngestTaskRoundTrip(t *testing.T) {
	raw := domain.RawLead{Name: "Jessica Park", Source: "reddit.com/r/cars", RawText: "ready to buy"}
	task := ingestTask(t, raw)

	if task.Type() != TaskIngestLead {
		t.Fatalf("unexpected task type %q", task.Type())
	}
	payload, err := ParseIngestLeadPayload(task)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if payload.Lead.Name != raw.Name || payload.Lead.Source != raw.Source || payload.ReceivedAt.IsZero() {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.Lead.RawText != raw.RawText {
		t.Fatalf("post content lost, got %q", payload.Lead.RawText)
	}
	if !strings.Contains(string(task.Payload()), `"postContent":"ready to buy"`) {
		t.Fatalf("expected postContent on the wire, got %s", task.Payload())
	}
}

func TestHandleIngestLeadCallsService(t *testing.T) {
	proc := &fakeProcessor{}
	w := newWorker(proc, nil)

	err := w.mux.ProcessTask(context.Background(), ingestTask(t, domain.RawLead{Name: "Sam", Source: "web"}))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(proc.ingested) != 1 || proc.ingested[0].Name != "Sam" {
		t.Fatalf("expected one ingest call, got %+v", proc.ingested)
	}
}

func TestHandleIngestLeadSkipsRetryOnValidation(t *testing.T) {
	proc := &fakeProcessor{ingestErr: apperr.Validation("invalid lead payload")}
	w := newWorker(proc, nil)

	err := w.mux.ProcessTask(context.Background(), ingestTask(t, domain.RawLead{}))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestHandleIngestLeadRetriesStorageErrors(t *testing.T) {
	proc := &fakeProcessor{ingestErr: apperr.Internal("lead storage unavailable")}
	w := newWorker(proc, nil)

	err := w.mux.ProcessTask(context.Background(), ingestTask(t, domain.RawLead{Name: "Sam", Source: "web"}))
	if err == nil || errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}

func TestHandleIngestLeadRejectsGarbage(t *testing.T) {
	w := newWorker(&fakeProcessor{}, nil)

	err := w.mux.ProcessTask(context.Background(), asynq.NewTask(TaskIngestLead, []byte("{not json")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestHandleRescoreDefaultsBatchSize(t *testing.T) {
	proc := &fakeProcessor{}
	w := newWorker(proc, nil)

	task, err := NewRescoreLeadsTask(RescoreLeadsPayload{DryRun: true})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := w.mux.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(proc.rescored) != 1 || proc.rescored[0] != defaultRescoreBatchSize || !proc.dryRuns[0] {
		t.Fatalf("unexpected rescore calls %v %v", proc.rescored, proc.dryRuns)
	}
}
