package service

import (
	"context"
	"errors"
	"fmt"

	"lead_intel_backend/internal/leads/domain"
	"lead_intel_backend/internal/leads/repository"
	"lead_intel_backend/platform/apperr"

	"github.com/google/uuid"
)

// ActiveAlerts returns unhandled alerts joined with their lead, newest first.
func (s *Service) ActiveAlerts(ctx context.Context, limit int) ([]domain.AlertWithLead, error) {
	alerts, err := s.repo.ListActiveAlerts(ctx, limit)
	if err != nil {
		return nil, s.storageError(opActiveAlerts, err)
	}
	return alerts, nil
}

// LeadAlerts returns every alert raised for a lead, newest first.
func (s *Service) LeadAlerts(ctx context.Context, leadID uuid.UUID) ([]domain.Alert, error) {
	if _, err := s.getLead(ctx, opLeadAlerts, leadID); err != nil {
		return nil, err
	}
	alerts, err := s.repo.ListLeadAlerts(ctx, leadID)
	if err != nil {
		return nil, s.storageError(opLeadAlerts, err)
	}
	return alerts, nil
}

// UpdateAlertStatus moves an alert along new -> read -> actioned|dismissed.
// Actioning records who handled it and when.
func (s *Service) UpdateAlertStatus(ctx context.Context, alertID uuid.UUID, next domain.AlertStatus, actorID uuid.UUID) (domain.Alert, error) {
	if !next.IsValid() {
		return domain.Alert{}, apperr.Validation(fmt.Sprintf("unknown alert status %q", next)).WithOp(opUpdateAlertStatus)
	}

	current, err := s.repo.GetAlert(ctx, alertID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Alert{}, apperr.NotFound(msgAlertNotFound).WithOp(opUpdateAlertStatus)
		}
		return domain.Alert{}, s.storageError(opUpdateAlertStatus, err)
	}

	if !current.Status.CanTransitionTo(next) {
		return domain.Alert{}, apperr.Conflict(fmt.Sprintf("alert cannot move from %s to %s", current.Status, next)).
			WithOp(opUpdateAlertStatus).
			WithDetails(map[string]string{"current": string(current.Status), "requested": string(next)})
	}

	change := repository.AlertStatusChange{ID: alertID, From: current.Status, To: next}
	if next == domain.AlertStatusActioned {
		now := s.now()
		change.ActionedAt = &now
		if actorID != uuid.Nil {
			actor := actorID.String()
			change.ActionedBy = &actor
		}
	}

	updated, err := s.repo.UpdateAlertStatus(ctx, change)
	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, repository.ErrAlertStatusChanged):
		return domain.Alert{}, apperr.Conflict("alert status changed concurrently").WithOp(opUpdateAlertStatus)
	case errors.Is(err, repository.ErrNotFound):
		return domain.Alert{}, apperr.NotFound(msgAlertNotFound).WithOp(opUpdateAlertStatus)
	default:
		return domain.Alert{}, s.storageError(opUpdateAlertStatus, err)
	}
}
