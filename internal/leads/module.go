// Package leads provides the lead intelligence bounded context module.
// This file wires scoring, classification, persistence and route registration.
package leads

import (
	"fmt"

	"lead_intel_backend/internal/events"
	apphttp "lead_intel_backend/internal/http"
	"lead_intel_backend/internal/leads/handler"
	"lead_intel_backend/internal/leads/lifecycle"
	"lead_intel_backend/internal/leads/repository"
	"lead_intel_backend/internal/leads/scoring"
	"lead_intel_backend/internal/leads/service"
	"lead_intel_backend/platform/config"
	"lead_intel_backend/platform/httpkit"
	"lead_intel_backend/platform/logger"
	"lead_intel_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewService builds the ingestion service. The phrase catalog is read from
// cfg when a path is configured, otherwise the built-in catalog is used.
func NewService(repo repository.Store, bus events.Bus, val *validator.Validator, cfg config.ScoringConfig, log *logger.Logger, opts ...service.Option) (*service.Service, error) {
	catalog := scoring.File{Scoring: scoring.DefaultCatalog()}
	if path := cfg.GetPhraseCatalogPath(); path != "" {
		loaded, err := scoring.LoadCatalog(path)
		if err != nil {
			return nil, fmt.Errorf("load phrase catalog: %w", err)
		}
		catalog = loaded
		log.Info("phrase catalog loaded", "path", path)
	}

	scorer := scoring.NewScorer(catalog.Scoring)
	classifier := lifecycle.NewClassifier(lifecycle.DefaultPhrases().WithOverrides(catalog.Stages))

	base := []service.Option{
		service.WithEventBus(bus),
	}
	if region := cfg.GetPhoneDefaultRegion(); region != "" {
		base = append(base, service.WithPhoneRegion(region))
	}

	return service.New(repo, scorer, classifier, val, log, append(base, opts...)...), nil
}

// NewModule creates the leads module around an initialized service.
// enqueuer may be nil when no queue is configured.
func NewModule(svc *service.Service, val *validator.Validator, enqueuer handler.IngestEnqueuer) *Module {
	return &Module{
		handler: handler.New(svc, val, enqueuer),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service exposes the ingestion service for workers and other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lead routes on the protected group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	signals := ctx.Protected.Group("/signals")
	signals.Use(httpkit.RequireRole(handler.RoleCollector, handler.RoleAdmin))
	if ctx.IngestLimiter != nil {
		signals.Use(ctx.IngestLimiter.RateLimit())
	}
	m.handler.RegisterSignalRoutes(signals)

	m.handler.RegisterLeadRoutes(ctx.Protected.Group("/leads"))
	m.handler.RegisterAlertRoutes(ctx.Protected.Group("/alerts"))
	m.handler.RegisterAnalyticsRoutes(ctx.Protected.Group("/analytics"))
	m.handler.RegisterSourceRoutes(ctx.Protected.Group("/sources"))
}
