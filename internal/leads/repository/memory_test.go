package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"lead_intel_backend/internal/leads/domain"

	"github.com/google/uuid"
)

func seedLead(t *testing.T, store *MemoryStore, key string, score int, created time.Time) domain.Lead {
	t.Helper()
	lead, err := store.Insert(context.Background(), domain.Lead{
		IdentityKey: key,
		Name:        key,
		Source:      "test",
		IntentScore: score,
		Stage:       domain.StageAwareness,
		Status:      domain.LeadStatusNew,
		CreatedAt:   created,
		UpdatedAt:   created,
	})
	if err != nil {
		t.Fatalf("insert %s: %v", key, err)
	}
	return lead
}

func TestMemoryInsertEnforcesIdentityKey(t *testing.T) {
	store := NewMemory()
	seedLead(t, store, "a@example.com", 10, time.Now())

	_, err := store.Insert(context.Background(), domain.Lead{IdentityKey: "a@example.com", Name: "dup"})
	if !errors.Is(err, ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}
}

func TestMemoryListOrdersByScoreThenCreated(t *testing.T) {
	store := NewMemory()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	low := seedLead(t, store, "low", 10, base)
	older := seedLead(t, store, "older", 90, base)
	newer := seedLead(t, store, "newer", 90, base.Add(time.Hour))

	leads, total, err := store.List(context.Background(), ListParams{Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
	want := []uuid.UUID{newer.ID, older.ID, low.ID}
	for i, id := range want {
		if leads[i].ID != id {
			t.Fatalf("position %d: got %s, want %s", i, leads[i].Name, id)
		}
	}

	page, total, _ := store.List(context.Background(), ListParams{Limit: 2, Offset: 2})
	if total != 3 || len(page) != 1 || page[0].ID != low.ID {
		t.Fatalf("unexpected second page %+v (total %d)", page, total)
	}
}

func TestMemoryUpdateAlertStatusIsConditional(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	lead := seedLead(t, store, "k", 90, time.Now())
	alert, err := store.CreateAlert(ctx, domain.Alert{LeadID: lead.ID, Priority: domain.PriorityCritical})
	if err != nil {
		t.Fatalf("create alert: %v", err)
	}

	if _, err := store.UpdateAlertStatus(ctx, AlertStatusChange{ID: alert.ID, From: domain.AlertStatusNew, To: domain.AlertStatusRead}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	_, err = store.UpdateAlertStatus(ctx, AlertStatusChange{ID: alert.ID, From: domain.AlertStatusNew, To: domain.AlertStatusDismissed})
	if !errors.Is(err, ErrAlertStatusChanged) {
		t.Fatalf("expected ErrAlertStatusChanged, got %v", err)
	}
	_, err = store.UpdateAlertStatus(ctx, AlertStatusChange{ID: uuid.New(), From: domain.AlertStatusNew, To: domain.AlertStatusRead})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryUpdateEnrichmentIsConditional(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	seeded := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	lead := seedLead(t, store, "k", 10, seeded)

	stale := EnrichmentChange{
		ID:                lead.ID,
		IntentScore:       40,
		Stage:             domain.StageConsideration,
		VehicleInterests:  []string{"sedan"},
		ExpectedUpdatedAt: seeded.Add(-time.Minute),
		UpdatedAt:         seeded.Add(time.Minute),
	}
	if _, err := store.UpdateEnrichment(ctx, stale); !errors.Is(err, ErrLeadChanged) {
		t.Fatalf("expected ErrLeadChanged, got %v", err)
	}

	fresh := stale
	fresh.ExpectedUpdatedAt = seeded
	updated, err := store.UpdateEnrichment(ctx, fresh)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.IntentScore != 40 || updated.Stage != domain.StageConsideration || updated.Name != "k" {
		t.Fatalf("unexpected lead %+v", updated)
	}
	if !updated.UpdatedAt.Equal(fresh.UpdatedAt) {
		t.Fatalf("expected updated_at to move, got %v", updated.UpdatedAt)
	}

	missing := fresh
	missing.ID = uuid.New()
	if _, err := store.UpdateEnrichment(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryListAfterPagesByID(t *testing.T) {
	store := NewMemory()
	for _, key := range []string{"a", "b", "c", "d", "e"} {
		seedLead(t, store, key, 0, time.Now())
	}

	seen := 0
	cursor := uuid.Nil
	for {
		batch, err := store.ListAfter(context.Background(), cursor, 2)
		if err != nil {
			t.Fatalf("list after: %v", err)
		}
		if len(batch) == 0 {
			break
		}
		seen += len(batch)
		cursor = batch[len(batch)-1].ID
	}
	if seen != 5 {
		t.Fatalf("expected to visit 5 leads, got %d", seen)
	}
}

func TestMemorySummaryZeroFillsStages(t *testing.T) {
	store := NewMemory()
	summary, err := store.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalLeads != 0 || summary.ConversionRate != 0 {
		t.Fatalf("unexpected empty summary %+v", summary)
	}
	for _, stage := range domain.Stages() {
		if _, ok := summary.StageDistribution[stage]; !ok {
			t.Fatalf("stage %s missing from distribution", stage)
		}
	}
}
