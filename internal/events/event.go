// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"lead_intel_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewBaseEventAt = events.NewBaseEventAt
)

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadIngested is published after a signal was persisted as a new or updated lead.
type LeadIngested struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	Created     bool      `json:"created"`
	Name        string    `json:"name"`
	Source      string    `json:"source"`
	IntentScore int       `json:"intentScore"`
	Stage       string    `json:"stage"`
	RawText     string    `json:"-"`
	SourceURL   string    `json:"sourceUrl,omitempty"`
}

func (e LeadIngested) EventName() string { return "leads.lead.ingested" }

// AlertRaised is published after an alert was persisted.
type AlertRaised struct {
	BaseEvent
	AlertID     uuid.UUID `json:"alertId"`
	LeadID      uuid.UUID `json:"leadId"`
	LeadName    string    `json:"leadName"`
	Trigger     string    `json:"trigger"`
	Priority    string    `json:"priority"`
	Message     string    `json:"message"`
	IntentScore int       `json:"intentScore"`
	Stage       string    `json:"stage"`
}

func (e AlertRaised) EventName() string { return "leads.alert.raised" }
