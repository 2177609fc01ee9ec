package domain

// Stage is a buying-journey position derived by the lifecycle classifier.
type Stage string

const (
	StageAwareness     Stage = "awareness"
	StageConsideration Stage = "consideration"
	StageIntent        Stage = "intent"
	StagePurchase      Stage = "purchase"
	StageOwnership     Stage = "ownership"
)

var stageOrder = []Stage{
	StageAwareness,
	StageConsideration,
	StageIntent,
	StagePurchase,
	StageOwnership,
}

// Stages returns every stage in journey order.
func Stages() []Stage {
	return append([]Stage(nil), stageOrder...)
}

// IsKnownStage reports whether s is one of the defined stages.
func IsKnownStage(s string) bool {
	for _, stage := range stageOrder {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// Rank is the position of s in the journey, or -1 when unknown.
func (s Stage) Rank() int {
	for i, stage := range stageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// LeadStatus is the human-managed workflow status of a lead.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusLost      LeadStatus = "lost"
)

// IsValid reports whether s is a known workflow status.
func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusLost:
		return true
	}
	return false
}
