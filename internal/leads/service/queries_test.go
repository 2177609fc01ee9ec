package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"lead_intel_backend/internal/leads/domain"
	"lead_intel_backend/internal/leads/repository"
	"lead_intel_backend/internal/leads/scoring"
	"lead_intel_backend/platform/apperr"

	"github.com/google/uuid"
)

func TestSummaryConversionRate(t *testing.T) {
	svc := newTestService(repository.NewMemory())
	ctx := context.Background()

	empty, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if empty.ConversionRate != 0 || empty.TotalLeads != 0 {
		t.Fatalf("empty store should report zero, got %+v", empty)
	}

	var ids []uuid.UUID
	for i := range 3 {
		res, err := svc.Ingest(ctx, domain.RawLead{
			Name:   fmt.Sprintf("Lead %d", i),
			Email:  fmt.Sprintf("lead%d@example.com", i),
			Source: "forum",
		})
		if err != nil {
			t.Fatalf("ingest: %v", err)
		}
		ids = append(ids, res.Lead.ID)
	}

	if _, err := svc.MarkConverted(ctx, ids[0], "cust-1", uuid.New()); err != nil {
		t.Fatalf("convert: %v", err)
	}

	summary, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.ConvertedLeads != 1 || summary.ConversionRate != 33 {
		t.Fatalf("expected 1 converted and 33%%, got %+v", summary)
	}
	if summary.StageDistribution[domain.StageAwareness] != 3 {
		t.Fatalf("unexpected stage distribution %v", summary.StageDistribution)
	}
}

func TestUpdateStatusKeepsScoreAndWritesActivity(t *testing.T) {
	svc := newTestService(repository.NewMemory())
	ctx := context.Background()
	res := ingestCritical(t, svc)

	updated, err := svc.UpdateStatus(ctx, res.Lead.ID, domain.LeadStatusContacted, uuid.New())
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != domain.LeadStatusContacted {
		t.Fatalf("status not applied")
	}
	if updated.IntentScore != res.Lead.IntentScore || updated.Stage != res.Lead.Stage {
		t.Fatalf("status change must not touch score or stage")
	}

	detail, _ := svc.Get(ctx, res.Lead.ID)
	if detail.Activities[0].Kind != domain.ActivityStatusChanged {
		t.Fatalf("expected newest activity to be status_changed, got %s", detail.Activities[0].Kind)
	}

	if _, err := svc.UpdateStatus(ctx, res.Lead.ID, "won", uuid.Nil); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, uuid.New(), domain.LeadStatusLost, uuid.Nil); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListRejectsUnknownFilters(t *testing.T) {
	svc := newTestService(repository.NewMemory())
	if _, err := svc.List(context.Background(), ListQuery{Stage: "shopping"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestScoreHistoryRecordsEachIngestion(t *testing.T) {
	svc := newTestService(repository.NewMemory())
	ctx := context.Background()
	first := ingestCritical(t, svc)
	ingestCritical(t, svc)

	samples, err := svc.ScoreHistory(ctx, first.Lead.ID, 10)
	if err != nil {
		t.Fatalf("score history: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected two samples, got %d", len(samples))
	}

	sources, err := svc.Sources(ctx)
	if err != nil {
		t.Fatalf("sources: %v", err)
	}
	if len(sources) != 1 || sources[0].SignalCount != 2 {
		t.Fatalf("unexpected sources %+v", sources)
	}
}

func TestRescoreAppliesNewCatalog(t *testing.T) {
	store := repository.NewMemory()
	ctx := context.Background()
	old := newTestService(store)
	res, err := old.Ingest(ctx, domain.RawLead{Name: "N", Email: "n@example.com", Source: "s", RawText: "we should sign the papers"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Lead.IntentScore != 0 {
		t.Fatalf("unexpected baseline score %d", res.Lead.IntentScore)
	}

	catalog := scoring.DefaultCatalog()
	catalog.High = append(catalog.High, "sign the papers")
	svc := newTestService(store)
	svc.scorer = scoring.NewScorer(catalog)

	dry, err := svc.Rescore(ctx, 1, true)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if dry.Scanned != 1 || dry.Changed != 1 {
		t.Fatalf("unexpected dry run stats %+v", dry)
	}
	if lead, _ := store.GetByID(ctx, res.Lead.ID); lead.IntentScore != 0 {
		t.Fatalf("dry run must not persist")
	}

	stats, err := svc.Rescore(ctx, 1, false)
	if err != nil {
		t.Fatalf("rescore: %v", err)
	}
	if stats.Changed != 1 {
		t.Fatalf("expected one change, got %+v", stats)
	}
	lead, _ := store.GetByID(ctx, res.Lead.ID)
	if lead.IntentScore != 25 {
		t.Fatalf("expected rescored 25, got %d", lead.IntentScore)
	}

	again, _ := svc.Rescore(ctx, 10, false)
	if again.Changed != 0 {
		t.Fatalf("second rescore should be a no-op, got %+v", again)
	}
}

// interleavingStore runs during once, right after the first non-empty page
// of a rescore pass was read.
type interleavingStore struct {
	*repository.MemoryStore
	once   sync.Once
	during func()
}

func (s *interleavingStore) ListAfter(ctx context.Context, cursor uuid.UUID, limit int) ([]domain.Lead, error) {
	leads, err := s.MemoryStore.ListAfter(ctx, cursor, limit)
	if err == nil && len(leads) > 0 {
		s.once.Do(s.during)
	}
	return leads, err
}

func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func TestRescoreKeepsConcurrentIngestion(t *testing.T) {
	mem := repository.NewMemory()
	ctx := context.Background()
	ingester := newTestService(mem, WithClock(tickingClock()))
	lead := domain.RawLead{Name: "N", Email: "n@example.com", Source: "s", RawText: "we should sign the papers"}
	res, err := ingester.Ingest(ctx, lead)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	store := &interleavingStore{MemoryStore: mem, during: func() {
		lead.RawText = jessicaText
		if _, err := ingester.Ingest(ctx, lead); err != nil {
			t.Errorf("concurrent ingest: %v", err)
		}
	}}
	catalog := scoring.DefaultCatalog()
	catalog.High = append(catalog.High, "sign the papers")
	svc := newTestService(store, WithClock(tickingClock()))
	svc.scorer = scoring.NewScorer(catalog)

	stats, err := svc.Rescore(ctx, 10, false)
	if err != nil {
		t.Fatalf("rescore: %v", err)
	}
	if stats.Scanned != 1 || stats.Failed != 0 || stats.Skipped != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	got, err := mem.GetByID(ctx, res.Lead.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RawText != jessicaText {
		t.Fatalf("concurrent ingestion was overwritten, raw text %q", got.RawText)
	}
	if got.IntentScore < 85 || got.Stage != domain.StagePurchase {
		t.Fatalf("expected the ingested purchase score to survive, got %d %s", got.IntentScore, got.Stage)
	}
}

type changingStore struct {
	*repository.MemoryStore
}

func (changingStore) UpdateEnrichment(context.Context, repository.EnrichmentChange) (domain.Lead, error) {
	return domain.Lead{}, repository.ErrLeadChanged
}

func TestRescoreSkipsLeadThatKeepsChanging(t *testing.T) {
	mem := repository.NewMemory()
	ctx := context.Background()
	res, err := newTestService(mem).Ingest(ctx, domain.RawLead{Name: "N", Email: "n@example.com", Source: "s", RawText: "we should sign the papers"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	catalog := scoring.DefaultCatalog()
	catalog.High = append(catalog.High, "sign the papers")
	svc := newTestService(changingStore{MemoryStore: mem})
	svc.scorer = scoring.NewScorer(catalog)

	stats, err := svc.Rescore(ctx, 10, false)
	if err != nil {
		t.Fatalf("rescore: %v", err)
	}
	if stats.Skipped != 1 || stats.Changed != 0 || stats.Failed != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	activities, _ := mem.ListActivities(ctx, res.Lead.ID)
	for _, a := range activities {
		if a.Kind == domain.ActivityLeadRescored {
			t.Fatalf("no rescore activity expected for a skipped lead")
		}
	}
}

func TestPreviewDoesNotPersist(t *testing.T) {
	store := repository.NewMemory()
	svc := newTestService(store)

	p := svc.Preview(jessicaText, scoring.Metadata{})
	if p.Stage != domain.StagePurchase || p.Alert == nil || p.Alert.Priority != domain.PriorityCritical {
		t.Fatalf("unexpected preview %+v", p)
	}
	summary, _ := svc.Summary(context.Background())
	if summary.TotalLeads != 0 {
		t.Fatalf("preview must not persist")
	}
}
