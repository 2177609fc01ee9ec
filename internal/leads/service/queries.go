package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lead_intel_backend/internal/leads/domain"
	"lead_intel_backend/internal/leads/repository"
	"lead_intel_backend/platform/apperr"

	"github.com/google/uuid"
)

// LeadPage is one page of the lead list.
type LeadPage struct {
	Items    []domain.Lead
	Total    int
	Page     int
	PageSize int
}

// LeadDetail is a lead with its full activity history, newest first.
type LeadDetail struct {
	Lead       domain.Lead
	Activities []domain.Activity
}

// ListQuery selects a page of leads. Page is 1-based.
type ListQuery struct {
	Page     int
	PageSize int
	Stage    string
	Status   string
	Source   string
	MinScore *int
}

// List returns leads ordered by intent score then creation time, both descending.
func (s *Service) List(ctx context.Context, q ListQuery) (LeadPage, error) {
	page := max(q.Page, 1)
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	pageSize = min(pageSize, 100)

	params := repository.ListParams{
		MinScore: q.MinScore,
		Offset:   (page - 1) * pageSize,
		Limit:    pageSize,
	}
	if q.Stage != "" {
		if !domain.IsKnownStage(q.Stage) {
			return LeadPage{}, apperr.Validation(fmt.Sprintf("unknown stage %q", q.Stage)).WithOp(opList)
		}
		stage := domain.Stage(q.Stage)
		params.Stage = &stage
	}
	if q.Status != "" {
		status := domain.LeadStatus(q.Status)
		if !status.IsValid() {
			return LeadPage{}, apperr.Validation(fmt.Sprintf("unknown status %q", q.Status)).WithOp(opList)
		}
		params.Status = &status
	}
	if source := strings.TrimSpace(q.Source); source != "" {
		params.Source = &source
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return LeadPage{}, s.storageError(opList, err)
	}
	return LeadPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Get returns a lead with its activity history.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (LeadDetail, error) {
	lead, err := s.getLead(ctx, opGet, id)
	if err != nil {
		return LeadDetail{}, err
	}
	activities, err := s.repo.ListActivities(ctx, id)
	if err != nil {
		return LeadDetail{}, s.storageError(opGet, err)
	}
	return LeadDetail{Lead: lead, Activities: activities}, nil
}

// ScoreHistory returns the lead's scoring events, newest first.
func (s *Service) ScoreHistory(ctx context.Context, id uuid.UUID, limit int) ([]domain.ScoreSample, error) {
	if _, err := s.getLead(ctx, opScoreHistory, id); err != nil {
		return nil, err
	}
	samples, err := s.repo.ListScoreSamples(ctx, id, limit)
	if err != nil {
		return nil, s.storageError(opScoreHistory, err)
	}
	return samples, nil
}

// Sources lists every signal origin seen so far.
func (s *Service) Sources(ctx context.Context) ([]domain.LeadSource, error) {
	sources, err := s.repo.ListSources(ctx)
	if err != nil {
		return nil, s.storageError(opSources, err)
	}
	return sources, nil
}

// Summary returns the analytics snapshot.
func (s *Service) Summary(ctx context.Context) (domain.Summary, error) {
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return domain.Summary{}, s.storageError(opSummary, err)
	}
	return summary, nil
}

// UpdateStatus changes the workflow status. Score and stage are untouched.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.LeadStatus, actorID uuid.UUID) (domain.Lead, error) {
	if !status.IsValid() {
		return domain.Lead{}, apperr.Validation(fmt.Sprintf("unknown status %q", status)).WithOp(opUpdateStatus)
	}
	current, err := s.getLead(ctx, opUpdateStatus, id)
	if err != nil {
		return domain.Lead{}, err
	}
	if current.Status == status {
		return current, nil
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return domain.Lead{}, s.mapLeadError(opUpdateStatus, err)
	}

	s.appendManualActivity(ctx, updated.ID, domain.ActivityStatusChanged,
		fmt.Sprintf("Status changed from %s to %s", current.Status, status),
		actorID, map[string]any{"from": string(current.Status), "to": string(status)})
	return updated, nil
}

// MarkConverted flags the lead as converted, optionally linking a customer id.
func (s *Service) MarkConverted(ctx context.Context, id uuid.UUID, customerID string, actorID uuid.UUID) (domain.Lead, error) {
	current, err := s.getLead(ctx, opMarkConverted, id)
	if err != nil {
		return domain.Lead{}, err
	}

	customer := domain.OptionalString(customerID)
	if current.Converted && customer == nil {
		return current, nil
	}

	updated, err := s.repo.MarkConverted(ctx, id, customer)
	if err != nil {
		return domain.Lead{}, s.mapLeadError(opMarkConverted, err)
	}

	metadata := map[string]any{}
	if customer != nil {
		metadata["customer_id"] = *customer
	}
	s.appendManualActivity(ctx, updated.ID, domain.ActivityLeadConverted, "Lead converted to customer", actorID, metadata)
	return updated, nil
}

func (s *Service) appendManualActivity(ctx context.Context, leadID uuid.UUID, kind, detail string, actorID uuid.UUID, metadata map[string]any) {
	if actorID != uuid.Nil {
		metadata["actor_id"] = actorID.String()
	}
	_, err := s.repo.AddActivity(ctx, domain.Activity{
		LeadID:     leadID,
		Kind:       kind,
		Detail:     detail,
		Source:     "dashboard",
		Confidence: 100,
		Metadata:   metadata,
		CreatedAt:  s.now(),
	})
	if err != nil {
		s.log.WithContext(ctx).PartialIngestion(leadID.String(), StepActivity, err)
	}
}

func (s *Service) getLead(ctx context.Context, op string, id uuid.UUID) (domain.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Lead{}, s.mapLeadError(op, err)
	}
	return lead, nil
}

func (s *Service) mapLeadError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgLeadNotFound).WithOp(op)
	}
	return s.storageError(op, err)
}
