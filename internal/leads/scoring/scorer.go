// Package scoring computes a deterministic purchase-intent score for free text.
package scoring

import (
	"math"
	"strings"

	"lead_intel_backend/internal/leads/domain"
)

// Metadata is optional context about the text being scored. It is recorded
// in the factors but does not change the score.
type Metadata struct {
	Source string
	Region string
}

// Result holds scoring output and factor details.
type Result struct {
	Score     int
	Interests []string
	Factors   domain.ScoreFactors
}

// Scorer scores text against an immutable catalog. Safe for concurrent use.
type Scorer struct {
	catalog Catalog
}

// NewScorer copies and normalizes catalog so later caller mutation has no effect.
func NewScorer(catalog Catalog) *Scorer {
	c := catalog
	c.High = normalizePhrases(catalog.High)
	c.Medium = normalizePhrases(catalog.Medium)
	c.Low = normalizePhrases(catalog.Low)
	c.Urgency = normalizePhrases(catalog.Urgency)
	c.Negative = normalizePhrases(catalog.Negative)
	c.Vehicles = normalizePhrases(catalog.Vehicles)
	return &Scorer{catalog: c}
}

// Score computes the intent score and vehicle interests of text.
func (s *Scorer) Score(text string, meta Metadata) Result {
	factors := domain.ScoreFactors{
		UrgencyMultiplier: 1,
		Source:            meta.Source,
		Region:            meta.Region,
	}

	lowered := strings.ToLower(text)
	if strings.TrimSpace(lowered) == "" {
		return Result{Score: 0, Interests: []string{}, Factors: factors}
	}

	factors.High = matches(lowered, s.catalog.High)
	factors.Medium = matches(lowered, s.catalog.Medium)
	factors.Low = matches(lowered, s.catalog.Low)
	factors.Urgency = matches(lowered, s.catalog.Urgency)
	factors.Negative = matches(lowered, s.catalog.Negative)

	base := len(factors.High)*s.catalog.HighWeight +
		len(factors.Medium)*s.catalog.MediumWeight +
		len(factors.Low)*s.catalog.LowWeight
	factors.BaseScore = base

	score := float64(base)
	if len(factors.Urgency) > 0 {
		factors.UrgencyMultiplier = s.catalog.UrgencyMultiplier
		score *= s.catalog.UrgencyMultiplier
	}

	if len(factors.Negative) > 0 {
		factors.NegativePenalty = len(factors.Negative) * s.catalog.NegativePenalty
		score = math.Max(0, score-float64(factors.NegativePenalty))
	}

	return Result{
		Score:     clampScore(score),
		Interests: matches(lowered, s.catalog.Vehicles),
		Factors:   factors,
	}
}

// ExtractInterests returns the catalog vehicle phrases found in text.
func (s *Scorer) ExtractInterests(text string) []string {
	return matches(strings.ToLower(text), s.catalog.Vehicles)
}

func matches(lowered string, phrases []string) []string {
	found := []string{}
	for _, phrase := range phrases {
		if strings.Contains(lowered, phrase) {
			found = append(found, phrase)
		}
	}
	return found
}

func clampScore(value float64) int {
	rounded := int(math.Round(value))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}
