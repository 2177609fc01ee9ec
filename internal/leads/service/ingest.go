package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lead_intel_backend/internal/events"
	"lead_intel_backend/internal/leads/alerting"
	"lead_intel_backend/internal/leads/domain"
	"lead_intel_backend/internal/leads/repository"
	"lead_intel_backend/internal/leads/scoring"
	"lead_intel_backend/platform/apperr"
	"lead_intel_backend/platform/metrics"
	"lead_intel_backend/platform/phone"
	"lead_intel_backend/platform/sanitize"
	"lead_intel_backend/platform/validator"
)

// Post-commit steps that may fail without failing the ingestion.
const (
	StepActivity    = "activity"
	StepScoreSample = "score_sample"
	StepSource      = "source"
	StepAlert       = "alert"
	StepArchive     = "archive"
)

// Warning reports a side effect that failed after the lead was committed.
type Warning struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

// IngestResult is the outcome of one ingestion call.
type IngestResult struct {
	Lead     domain.Lead
	Created  bool
	Factors  domain.ScoreFactors
	Alert    *domain.Alert
	Warnings []Warning
}

// Ingest scores a raw signal, upserts the lead by identity key, appends an
// activity and raises an alert when the score crosses a threshold.
//
// A lead write failure aborts the call. Failures after the lead is committed
// are returned as warnings; retrying the same payload is safe.
func (s *Service) Ingest(ctx context.Context, raw domain.RawLead) (IngestResult, error) {
	if err := s.val.Struct(raw); err != nil {
		metrics.LeadIngested(metrics.OutcomeRejected)
		return IngestResult{}, apperr.Validation("invalid lead payload").
			WithDetails(validator.Fields(err)).
			WithOp(opIngest)
	}

	raw = s.normalize(raw)
	if raw.Name == "" {
		metrics.LeadIngested(metrics.OutcomeRejected)
		return IngestResult{}, apperr.Validation("name is empty after removing markup").WithOp(opIngest)
	}
	scored := s.scorer.Score(raw.RawText, scoring.Metadata{Source: raw.Source, Region: raw.Region})
	stage := s.classifier.Classify(scored.Score, raw.RawText)
	now := s.now()

	lead, created, err := s.persistLead(ctx, raw, scored, stage, now)
	if err != nil {
		metrics.LeadIngested(metrics.OutcomeFailed)
		return IngestResult{}, err
	}

	result := IngestResult{Lead: lead, Created: created, Factors: scored.Factors}
	s.recordActivity(ctx, &result, raw, now)
	s.recordScoreSample(ctx, &result, now)
	s.touchSource(ctx, &result, raw.Source, now)
	s.raiseAlert(ctx, &result, now)
	s.archive(ctx, &result, raw, now)

	outcome := metrics.OutcomeUpdated
	if created {
		outcome = metrics.OutcomeCreated
	}
	metrics.LeadIngested(outcome)
	metrics.ObserveScore(lead.IntentScore)
	s.log.WithContext(ctx).LeadIngested(lead.ID.String(), lead.Source, created, lead.IntentScore, string(lead.Stage))

	s.publish(ctx, events.LeadIngested{
		BaseEvent:   events.NewBaseEventAt(now),
		LeadID:      lead.ID,
		Created:     created,
		Name:        lead.Name,
		Source:      lead.Source,
		IntentScore: lead.IntentScore,
		Stage:       string(lead.Stage),
		RawText:     lead.RawText,
		SourceURL:   raw.SourceURL,
	})

	return result, nil
}

func (s *Service) normalize(raw domain.RawLead) domain.RawLead {
	raw.Name = sanitize.Line(raw.Name)
	raw.Source = strings.TrimSpace(raw.Source)
	raw.Email = strings.ToLower(strings.TrimSpace(raw.Email))
	raw.Phone = phone.NormalizeE164(raw.Phone, s.phoneRegion)
	raw.ContactHandle = sanitize.Line(raw.ContactHandle)
	raw.SourceURL = strings.TrimSpace(raw.SourceURL)
	raw.Region = strings.TrimSpace(raw.Region)
	raw.BudgetRange = sanitize.Line(raw.BudgetRange)
	raw.Timeframe = sanitize.Line(raw.Timeframe)
	return raw
}

// persistLead updates the lead with the same identity key or inserts a new
// one. An insert that loses a race on the unique key is retried once as an update.
func (s *Service) persistLead(ctx context.Context, raw domain.RawLead, scored scoring.Result, stage domain.Stage, now time.Time) (domain.Lead, bool, error) {
	key := raw.IdentityKey()

	existing, err := s.repo.GetByIdentityKey(ctx, key)
	switch {
	case err == nil:
		lead, err := s.updateExisting(ctx, existing, raw, scored, stage, now)
		return lead, false, err
	case !errors.Is(err, repository.ErrNotFound):
		return domain.Lead{}, false, s.storageError(opIngest, err)
	}

	inserted, err := s.repo.Insert(ctx, newLead(key, raw, scored, stage, now))
	if err == nil {
		return inserted, true, nil
	}
	if !errors.Is(err, repository.ErrDuplicateIdentity) {
		return domain.Lead{}, false, s.storageError(opIngest, err)
	}

	existing, err = s.repo.GetByIdentityKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Lead{}, false, apperr.Conflict("lead identity collision could not be resolved").WithOp(opIngest)
		}
		return domain.Lead{}, false, s.storageError(opIngest, err)
	}
	lead, err := s.updateExisting(ctx, existing, raw, scored, stage, now)
	return lead, false, err
}

func (s *Service) updateExisting(ctx context.Context, existing domain.Lead, raw domain.RawLead, scored scoring.Result, stage domain.Stage, now time.Time) (domain.Lead, error) {
	updated, err := s.repo.Update(ctx, mergeLead(existing, raw, scored, stage, now))
	if err != nil {
		return domain.Lead{}, s.storageError(opIngest, err)
	}
	return updated, nil
}

func newLead(key string, raw domain.RawLead, scored scoring.Result, stage domain.Stage, now time.Time) domain.Lead {
	return domain.Lead{
		IdentityKey:      key,
		Name:             raw.Name,
		Email:            domain.OptionalString(raw.Email),
		Phone:            domain.OptionalString(raw.Phone),
		ContactHandle:    domain.OptionalString(raw.ContactHandle),
		Source:           raw.Source,
		SourceURL:        domain.OptionalString(raw.SourceURL),
		RawText:          domain.StoredPostContent(raw.RawText),
		IntentScore:      scored.Score,
		Stage:            stage,
		VehicleInterests: scored.Interests,
		Region:           domain.OptionalString(raw.Region),
		BudgetRange:      domain.OptionalString(raw.BudgetRange),
		Timeframe:        domain.OptionalString(raw.Timeframe),
		Status:           domain.LeadStatusNew,
		FirstSeenAt:      now,
		LastSeenAt:       now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// mergeLead overwrites enrichment and provenance with the latest submission.
// Contact and context fields only change when the submission carries a value.
func mergeLead(existing domain.Lead, raw domain.RawLead, scored scoring.Result, stage domain.Stage, now time.Time) domain.Lead {
	merged := existing
	merged.Name = raw.Name
	merged.Source = raw.Source
	merged.SourceURL = domain.OptionalString(raw.SourceURL)
	merged.RawText = domain.StoredPostContent(raw.RawText)
	merged.IntentScore = scored.Score
	merged.Stage = stage
	merged.VehicleInterests = scored.Interests

	keepOrReplace(&merged.Email, raw.Email)
	keepOrReplace(&merged.Phone, raw.Phone)
	keepOrReplace(&merged.ContactHandle, raw.ContactHandle)
	keepOrReplace(&merged.Region, raw.Region)
	keepOrReplace(&merged.BudgetRange, raw.BudgetRange)
	keepOrReplace(&merged.Timeframe, raw.Timeframe)

	merged.LastSeenAt = now
	merged.UpdatedAt = now
	return merged
}

func keepOrReplace(field **string, value string) {
	if v := domain.OptionalString(value); v != nil {
		*field = v
	}
}

func (s *Service) recordActivity(ctx context.Context, result *IngestResult, raw domain.RawLead, now time.Time) {
	kind := domain.ActivityLeadUpdated
	detail := fmt.Sprintf("Lead updated from %s signal", raw.Source)
	if result.Created {
		kind = domain.ActivityLeadCaptured
		detail = fmt.Sprintf("Lead captured from %s signal", raw.Source)
	}

	metadata := map[string]any{
		"raw_text":     domain.StoredPostContent(raw.RawText),
		"intent_score": result.Lead.IntentScore,
		"stage":        string(result.Lead.Stage),
		"interests":    result.Lead.VehicleInterests,
	}
	if raw.SourceURL != "" {
		metadata["source_url"] = raw.SourceURL
	}

	_, err := s.repo.AddActivity(ctx, domain.Activity{
		LeadID:     result.Lead.ID,
		Kind:       kind,
		Detail:     detail,
		Source:     raw.Source,
		Confidence: domain.IngestConfidence,
		Metadata:   metadata,
		CreatedAt:  now,
	})
	s.warnIf(ctx, result, StepActivity, err)
}

func (s *Service) recordScoreSample(ctx context.Context, result *IngestResult, now time.Time) {
	_, err := s.repo.AddScoreSample(ctx, domain.ScoreSample{
		LeadID:    result.Lead.ID,
		Score:     result.Lead.IntentScore,
		Stage:     result.Lead.Stage,
		Factors:   result.Factors,
		CreatedAt: now,
	})
	s.warnIf(ctx, result, StepScoreSample, err)
}

func (s *Service) touchSource(ctx context.Context, result *IngestResult, source string, now time.Time) {
	s.warnIf(ctx, result, StepSource, s.repo.TouchSource(ctx, source, now))
}

func (s *Service) raiseAlert(ctx context.Context, result *IngestResult, now time.Time) {
	desc, ok := alerting.Evaluate(result.Lead)
	if !ok {
		return
	}

	alert, err := s.repo.CreateAlert(ctx, domain.Alert{
		LeadID:    result.Lead.ID,
		Trigger:   desc.Trigger,
		Message:   desc.Message,
		Priority:  desc.Priority,
		Status:    domain.AlertStatusNew,
		CreatedAt: now,
	})
	if err != nil {
		s.warnIf(ctx, result, StepAlert, err)
		return
	}
	result.Alert = &alert

	metrics.AlertRaised(string(alert.Priority))
	s.log.WithContext(ctx).AlertRaised(alert.ID.String(), alert.LeadID.String(), alert.Trigger, string(alert.Priority))
	s.publish(ctx, events.AlertRaised{
		BaseEvent:   events.NewBaseEventAt(now),
		AlertID:     alert.ID,
		LeadID:      alert.LeadID,
		LeadName:    result.Lead.Name,
		Trigger:     alert.Trigger,
		Priority:    string(alert.Priority),
		Message:     alert.Message,
		IntentScore: result.Lead.IntentScore,
		Stage:       string(result.Lead.Stage),
	})
}

func (s *Service) archive(ctx context.Context, result *IngestResult, raw domain.RawLead, now time.Time) {
	if s.archiver == nil {
		return
	}
	s.warnIf(ctx, result, StepArchive, s.archiver.Archive(ctx, result.Lead.ID, raw, now))
}

func (s *Service) warnIf(ctx context.Context, result *IngestResult, step string, err error) {
	if err == nil {
		return
	}
	result.Warnings = append(result.Warnings, Warning{Step: step, Message: err.Error()})
	metrics.IngestWarning(step)
	s.log.WithContext(ctx).PartialIngestion(result.Lead.ID.String(), step, err)
}

func (s *Service) storageError(op string, err error) error {
	s.log.DatabaseError(op, err)
	return apperr.Wrap(apperr.KindInternal, msgStorageFailed, err).WithOp(op)
}
