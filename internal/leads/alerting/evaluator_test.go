package alerting

import (
	"strings"
	"testing"

	"lead_intel_backend/internal/leads/domain"
)

func TestEvaluateLadder(t *testing.T) {
	cases := []struct {
		score    int
		want     bool
		priority domain.Priority
		trigger  string
	}{
		{100, true, domain.PriorityCritical, domain.TriggerHighIntentPurchase},
		{85, true, domain.PriorityCritical, domain.TriggerHighIntentPurchase},
		{84, true, domain.PriorityHigh, domain.TriggerActiveShopping},
		{70, true, domain.PriorityHigh, domain.TriggerActiveShopping},
		{69, true, domain.PriorityMedium, domain.TriggerConsiderationStage},
		{50, true, domain.PriorityMedium, domain.TriggerConsiderationStage},
		{49, false, "", ""},
		{0, false, "", ""},
	}
	for _, tc := range cases {
		desc, ok := Evaluate(domain.Lead{Name: "Sam", IntentScore: tc.score})
		if ok != tc.want {
			t.Fatalf("score %d: ok = %v, want %v", tc.score, ok, tc.want)
		}
		if desc.Priority != tc.priority || desc.Trigger != tc.trigger {
			t.Errorf("score %d: got %s/%s, want %s/%s", tc.score, desc.Priority, desc.Trigger, tc.priority, tc.trigger)
		}
	}
}

func TestEvaluateMessageMentionsLead(t *testing.T) {
	desc, ok := Evaluate(domain.Lead{Name: "Jessica Park", IntentScore: 92})
	if !ok {
		t.Fatalf("expected alert")
	}
	if !strings.Contains(desc.Message, "Jessica Park") || !strings.Contains(desc.Message, "92") {
		t.Fatalf("message should carry name and score: %q", desc.Message)
	}
}
