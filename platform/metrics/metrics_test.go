package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLeadIngestedCountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(leadsIngested.WithLabelValues(OutcomeCreated))
	LeadIngested(OutcomeCreated)
	LeadIngested(OutcomeCreated)

	got := testutil.ToFloat64(leadsIngested.WithLabelValues(OutcomeCreated))
	if got-before != 2 {
		t.Fatalf("expected 2 increments, got %v", got-before)
	}
}

func TestIngestWarningCountsByStep(t *testing.T) {
	before := testutil.ToFloat64(ingestWarnings.WithLabelValues("alert"))
	IngestWarning("alert")

	if got := testutil.ToFloat64(ingestWarnings.WithLabelValues("alert")); got-before != 1 {
		t.Fatalf("expected 1 increment, got %v", got-before)
	}
}
