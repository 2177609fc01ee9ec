package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Activity kinds written by the pipeline.
const (
	ActivityLeadCaptured  = "lead_captured"
	ActivityLeadUpdated   = "lead_updated"
	ActivityStatusChanged = "status_changed"
	ActivityLeadConverted = "lead_converted"
	ActivityLeadRescored  = "lead_rescored"
)

// IngestConfidence is the confidence attached to pipeline-written activities.
const IngestConfidence = 95

// Activity is an append-only audit record for a lead.
type Activity struct {
	ID         uuid.UUID
	LeadID     uuid.UUID
	Kind       string
	Detail     string
	Source     string
	Confidence int
	Metadata   map[string]any
	CreatedAt  time.Time
}

// ScoreFactors explains how an intent score was reached.
type ScoreFactors struct {
	High              []string `json:"high,omitempty"`
	Medium            []string `json:"medium,omitempty"`
	Low               []string `json:"low,omitempty"`
	Urgency           []string `json:"urgency,omitempty"`
	Negative          []string `json:"negative,omitempty"`
	BaseScore         int      `json:"baseScore"`
	UrgencyMultiplier float64  `json:"urgencyMultiplier"`
	NegativePenalty   int      `json:"negativePenalty"`
	Source            string   `json:"source,omitempty"`
	Region            string   `json:"region,omitempty"`
}

// ScoreSample records one scoring event for a lead.
type ScoreSample struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	Score     int
	Stage     Stage
	Factors   ScoreFactors
	CreatedAt time.Time
}

// Summary is a point-in-time analytics snapshot.
type Summary struct {
	TotalLeads        int
	HighIntentLeads   int
	ReadyToBuyLeads   int
	ActiveAlerts      int
	ConvertedLeads    int
	ConversionRate    int
	StageDistribution map[Stage]int
}

// ConversionRate is converted/total as a whole percentage, 0 when total is 0.
func ConversionRate(converted, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(converted) / float64(total)))
}

// ZeroStageDistribution returns a distribution with every stage present.
func ZeroStageDistribution() map[Stage]int {
	dist := make(map[Stage]int, len(stageOrder))
	for _, s := range stageOrder {
		dist[s] = 0
	}
	return dist
}
