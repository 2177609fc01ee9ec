package domain

import (
	"time"

	"github.com/google/uuid"
)

// Priority ranks alert urgency.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Alert trigger kinds.
const (
	TriggerHighIntentPurchase = "high_intent_purchase"
	TriggerActiveShopping     = "active_shopping"
	TriggerConsiderationStage = "consideration_stage"
)

// AlertStatus tracks human handling of an alert.
type AlertStatus string

const (
	AlertStatusNew       AlertStatus = "new"
	AlertStatusRead      AlertStatus = "read"
	AlertStatusActioned  AlertStatus = "actioned"
	AlertStatusDismissed AlertStatus = "dismissed"
)

var alertTransitions = map[AlertStatus][]AlertStatus{
	AlertStatusNew:  {AlertStatusRead, AlertStatusActioned, AlertStatusDismissed},
	AlertStatusRead: {AlertStatusActioned, AlertStatusDismissed},
}

// IsValid reports whether s is a known alert status.
func (s AlertStatus) IsValid() bool {
	switch s {
	case AlertStatusNew, AlertStatusRead, AlertStatusActioned, AlertStatusDismissed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s.
func (s AlertStatus) IsTerminal() bool {
	return s == AlertStatusActioned || s == AlertStatusDismissed
}

// CanTransitionTo reports whether an alert in status s may move to next.
func (s AlertStatus) CanTransitionTo(next AlertStatus) bool {
	for _, allowed := range alertTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Alert is a prioritized notification raised when intent crosses a threshold.
type Alert struct {
	ID         uuid.UUID
	LeadID     uuid.UUID
	Trigger    string
	Message    string
	Priority   Priority
	Status     AlertStatus
	ActionedBy *string
	ActionedAt *time.Time
	CreatedAt  time.Time
}

// AlertWithLead is an alert joined with the lead it refers to.
type AlertWithLead struct {
	Alert
	Lead Lead
}
