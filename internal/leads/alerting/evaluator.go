// Package alerting decides whether a scored lead warrants an alert.
package alerting

import (
	"fmt"

	"lead_intel_backend/internal/leads/domain"
)

// Thresholds are inclusive lower bounds.
const (
	CriticalThreshold = 85
	HighThreshold     = 70
	MediumThreshold   = 50
)

// Descriptor describes an alert to be persisted.
type Descriptor struct {
	Trigger  string
	Priority domain.Priority
	Message  string
}

// Evaluate applies the threshold ladder to lead. The second return is false
// when no alert should be raised.
func Evaluate(lead domain.Lead) (Descriptor, bool) {
	score := lead.IntentScore
	switch {
	case score >= CriticalThreshold:
		return Descriptor{
			Trigger:  domain.TriggerHighIntentPurchase,
			Priority: domain.PriorityCritical,
			Message:  fmt.Sprintf("%s is ready to buy (intent score %d). Contact immediately.", lead.Name, score),
		}, true
	case score >= HighThreshold:
		return Descriptor{
			Trigger:  domain.TriggerActiveShopping,
			Priority: domain.PriorityHigh,
			Message:  fmt.Sprintf("%s is actively shopping (intent score %d). Follow up today.", lead.Name, score),
		}, true
	case score >= MediumThreshold:
		return Descriptor{
			Trigger:  domain.TriggerConsiderationStage,
			Priority: domain.PriorityMedium,
			Message:  fmt.Sprintf("%s is considering a purchase (intent score %d).", lead.Name, score),
		}, true
	default:
		return Descriptor{}, false
	}
}
