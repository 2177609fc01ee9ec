// Package lifecycle maps an intent score and text to a buying-journey stage.
package lifecycle

import (
	"strings"

	"lead_intel_backend/internal/leads/domain"
)

// Score thresholds. A stage applies when the score is strictly above its threshold.
const (
	PurchaseThreshold      = 80
	IntentThreshold        = 60
	ConsiderationThreshold = 30
)

// Phrases are the stage indicator phrase sets checked alongside the score.
type Phrases struct {
	Purchase      []string
	Intent        []string
	Consideration []string
}

// DefaultPhrases returns the built-in stage indicator phrases.
func DefaultPhrases() Phrases {
	return Phrases{
		Purchase:      []string{"ready to buy", "financing approved", "test drive today"},
		Intent:        []string{"shopping for", "comparing", "best price"},
		Consideration: []string{"thinking about", "considering", "researching"},
	}
}

// WithOverrides replaces the phrase sets named in overrides
// ("purchase", "intent", "consideration"). Unknown keys are ignored.
func (p Phrases) WithOverrides(overrides map[string][]string) Phrases {
	if v := overrides[string(domain.StagePurchase)]; len(v) > 0 {
		p.Purchase = v
	}
	if v := overrides[string(domain.StageIntent)]; len(v) > 0 {
		p.Intent = v
	}
	if v := overrides[string(domain.StageConsideration)]; len(v) > 0 {
		p.Consideration = v
	}
	return p
}

// Classifier is stateless after construction and safe for concurrent use.
type Classifier struct {
	phrases Phrases
}

// NewClassifier copies and lowercases phrases.
func NewClassifier(phrases Phrases) *Classifier {
	return &Classifier{phrases: Phrases{
		Purchase:      lowerAll(phrases.Purchase),
		Intent:        lowerAll(phrases.Intent),
		Consideration: lowerAll(phrases.Consideration),
	}}
}

// Classify returns the first matching stage from purchase down to awareness.
// Ownership is never derived here.
func (c *Classifier) Classify(score int, text string) domain.Stage {
	lowered := strings.ToLower(text)
	switch {
	case score > PurchaseThreshold || containsAny(lowered, c.phrases.Purchase):
		return domain.StagePurchase
	case score > IntentThreshold || containsAny(lowered, c.phrases.Intent):
		return domain.StageIntent
	case score > ConsiderationThreshold || containsAny(lowered, c.phrases.Consideration):
		return domain.StageConsideration
	default:
		return domain.StageAwareness
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
