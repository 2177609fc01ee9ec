// Package service orchestrates lead ingestion and serves lead, alert and
// analytics queries on top of the repository.
package service

import (
	"context"
	"time"

	"lead_intel_backend/internal/events"
	"lead_intel_backend/internal/leads/domain"
	"lead_intel_backend/internal/leads/lifecycle"
	"lead_intel_backend/internal/leads/repository"
	"lead_intel_backend/internal/leads/scoring"
	"lead_intel_backend/platform/logger"
	"lead_intel_backend/platform/phone"
	"lead_intel_backend/platform/validator"

	"github.com/google/uuid"
)

const (
	opIngest            = "leads.Ingest"
	opList              = "leads.List"
	opGet               = "leads.Get"
	opActiveAlerts      = "leads.ActiveAlerts"
	opLeadAlerts        = "leads.LeadAlerts"
	opUpdateAlertStatus = "leads.UpdateAlertStatus"
	opUpdateStatus      = "leads.UpdateStatus"
	opMarkConverted     = "leads.MarkConverted"
	opScoreHistory      = "leads.ScoreHistory"
	opSources           = "leads.Sources"
	opSummary           = "leads.Summary"
	opRescore           = "leads.Rescore"

	msgLeadNotFound  = "lead not found"
	msgAlertNotFound = "alert not found"
	msgStorageFailed = "lead storage unavailable"
)

// Repository is the persistence surface the service needs.
type Repository interface {
	repository.Store
}

// RawArchiver stores the submitted payload for later audit. Optional.
type RawArchiver interface {
	Archive(ctx context.Context, leadID uuid.UUID, raw domain.RawLead, receivedAt time.Time) error
}

// Service handles ingestion and queries for the leads context.
type Service struct {
	repo        Repository
	scorer      *scoring.Scorer
	classifier  *lifecycle.Classifier
	val         *validator.Validator
	bus         events.Bus
	archiver    RawArchiver
	log         *logger.Logger
	phoneRegion string
	now         func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithArchiver archives every accepted raw payload.
func WithArchiver(a RawArchiver) Option {
	return func(s *Service) { s.archiver = a }
}

// WithEventBus publishes LeadIngested and AlertRaised events.
func WithEventBus(bus events.Bus) Option {
	return func(s *Service) { s.bus = bus }
}

// WithPhoneRegion sets the default region for phone normalization.
func WithPhoneRegion(region string) Option {
	return func(s *Service) { s.phoneRegion = region }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a leads service.
func New(repo Repository, scorer *scoring.Scorer, classifier *lifecycle.Classifier, val *validator.Validator, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		scorer:      scorer,
		classifier:  classifier,
		val:         val,
		log:         log,
		phoneRegion: phone.DefaultRegion,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.val == nil {
		s.val = validator.New()
	}
	return s
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, event)
}
