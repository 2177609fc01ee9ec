// Package http wires the lead-intel modules onto one gin engine.
package http

import (
	"context"

	"lead_intel_backend/internal/events"
	"lead_intel_backend/platform/config"
	"lead_intel_backend/platform/logger"
)

// RouterConfig is the slice of configuration the router reads.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker is satisfied by *pgxpool.Pool.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is what cmd/api hands to router.New.
type App struct {
	Config   RouterConfig
	Logger   *logger.Logger
	Health   HealthChecker // nil when running on the memory store
	EventBus events.Bus
	Modules  []Module
}
