package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"lead_intel_backend/internal/leads/alerting"
	"lead_intel_backend/internal/leads/domain"
	"lead_intel_backend/internal/leads/repository"
	"lead_intel_backend/internal/leads/scoring"

	"github.com/google/uuid"
)

const (
	defaultRescoreBatch = 200
	maxRescoreAttempts  = 2
)

// Preview is a dry-run scoring of a payload. Nothing is persisted.
type Preview struct {
	Score     int
	Stage     domain.Stage
	Interests []string
	Factors   domain.ScoreFactors
	Alert     *alerting.Descriptor
}

// Preview scores text the same way Ingest would.
func (s *Service) Preview(text string, meta scoring.Metadata) Preview {
	scored := s.scorer.Score(text, meta)
	stage := s.classifier.Classify(scored.Score, text)
	p := Preview{Score: scored.Score, Stage: stage, Interests: scored.Interests, Factors: scored.Factors}
	if desc, ok := alerting.Evaluate(domain.Lead{Name: "lead", IntentScore: scored.Score}); ok {
		p.Alert = &desc
	}
	return p
}

// RescoreStats summarizes a rescore run.
type RescoreStats struct {
	Scanned int
	Changed int
	// Skipped counts leads that kept changing under the pass.
	Skipped int
	Failed  int
}

// Rescore recomputes score, stage and interests of every stored lead with the
// current catalog, walking the table in id order. Changed leads get a
// lead_rescored activity and a score sample. No alerts are raised.
func (s *Service) Rescore(ctx context.Context, batchSize int, dryRun bool) (RescoreStats, error) {
	if batchSize <= 0 {
		batchSize = defaultRescoreBatch
	}

	var stats RescoreStats
	cursor := uuid.Nil
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		batch, err := s.repo.ListAfter(ctx, cursor, batchSize)
		if err != nil {
			return stats, s.storageError(opRescore, err)
		}
		if len(batch) == 0 {
			return stats, nil
		}

		for _, lead := range batch {
			stats.Scanned++
			changed, err := s.rescoreLead(ctx, lead, dryRun)
			if errors.Is(err, repository.ErrLeadChanged) {
				stats.Skipped++
				s.log.WithContext(ctx).Warn("rescore skipped concurrently updated lead", "leadId", lead.ID)
				continue
			}
			if err != nil {
				stats.Failed++
				s.log.WithContext(ctx).Error("rescore failed", "leadId", lead.ID, "error", err)
				continue
			}
			if changed {
				stats.Changed++
			}
		}
		cursor = batch[len(batch)-1].ID
	}
}

// rescoreLead writes only score, stage and interests, conditioned on the
// lead's updated_at. A lead written by an ingestion in the meantime is
// re-read and scored again; a second miss leaves it to the next pass.
func (s *Service) rescoreLead(ctx context.Context, lead domain.Lead, dryRun bool) (bool, error) {
	for attempt := 0; ; attempt++ {
		meta := scoring.Metadata{Source: lead.Source}
		if lead.Region != nil {
			meta.Region = *lead.Region
		}
		scored := s.scorer.Score(lead.RawText, meta)
		stage := s.classifier.Classify(scored.Score, lead.RawText)

		if scored.Score == lead.IntentScore && stage == lead.Stage && slices.Equal(scored.Interests, lead.VehicleInterests) {
			return false, nil
		}
		if dryRun {
			return true, nil
		}

		now := s.now()
		updated, err := s.repo.UpdateEnrichment(ctx, repository.EnrichmentChange{
			ID:                lead.ID,
			IntentScore:       scored.Score,
			Stage:             stage,
			VehicleInterests:  scored.Interests,
			ExpectedUpdatedAt: lead.UpdatedAt,
			UpdatedAt:         now,
		})
		if errors.Is(err, repository.ErrLeadChanged) && attempt < maxRescoreAttempts-1 {
			if lead, err = s.repo.GetByID(ctx, lead.ID); err != nil {
				return false, err
			}
			continue
		}
		if err != nil {
			return false, err
		}

		s.recordRescore(ctx, lead, updated, scored.Factors, now)
		return true, nil
	}
}

func (s *Service) recordRescore(ctx context.Context, previous, updated domain.Lead, factors domain.ScoreFactors, now time.Time) {
	if _, err := s.repo.AddActivity(ctx, domain.Activity{
		LeadID:     updated.ID,
		Kind:       domain.ActivityLeadRescored,
		Detail:     fmt.Sprintf("Rescored from %d (%s) to %d (%s)", previous.IntentScore, previous.Stage, updated.IntentScore, updated.Stage),
		Source:     "rescore",
		Confidence: domain.IngestConfidence,
		Metadata: map[string]any{
			"previous_score": previous.IntentScore,
			"previous_stage": string(previous.Stage),
			"intent_score":   updated.IntentScore,
			"stage":          string(updated.Stage),
		},
		CreatedAt: now,
	}); err != nil {
		s.log.WithContext(ctx).PartialIngestion(updated.ID.String(), StepActivity, err)
	}

	if _, err := s.repo.AddScoreSample(ctx, domain.ScoreSample{
		LeadID:    updated.ID,
		Score:     updated.IntentScore,
		Stage:     updated.Stage,
		Factors:   factors,
		CreatedAt: now,
	}); err != nil {
		s.log.WithContext(ctx).PartialIngestion(updated.ID.String(), StepScoreSample, err)
	}
}
