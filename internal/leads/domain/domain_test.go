package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestIdentityKeyPrefersEmail(t *testing.T) {
	raw := RawLead{Name: "Jessica Park", Source: "facebook", Email: "  Jessica.Park@Example.com "}
	if got := raw.IdentityKey(); got != "jessica.park@example.com" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestIdentityKeyCompositeWithoutEmail(t *testing.T) {
	raw := RawLead{Name: " Jessica Park ", Source: "Reddit", ContactHandle: "@JPark"}
	if got := raw.IdentityKey(); got != "jessica park|reddit|@jpark" {
		t.Fatalf("unexpected key %q", got)
	}

	other := RawLead{Name: "jessica park", Source: "reddit", ContactHandle: "@jpark"}
	if raw.IdentityKey() != other.IdentityKey() {
		t.Fatalf("keys should match after normalization")
	}
}

func TestAlertStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to AlertStatus
		want     bool
	}{
		{AlertStatusNew, AlertStatusRead, true},
		{AlertStatusNew, AlertStatusActioned, true},
		{AlertStatusNew, AlertStatusDismissed, true},
		{AlertStatusRead, AlertStatusActioned, true},
		{AlertStatusRead, AlertStatusDismissed, true},
		{AlertStatusRead, AlertStatusNew, false},
		{AlertStatusActioned, AlertStatusDismissed, false},
		{AlertStatusDismissed, AlertStatusRead, false},
		{AlertStatusNew, AlertStatusNew, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestStagesAreOrdered(t *testing.T) {
	stages := Stages()
	if len(stages) != 5 || stages[0] != StageAwareness || stages[4] != StageOwnership {
		t.Fatalf("unexpected stage order %v", stages)
	}
	if StagePurchase.Rank() <= StageIntent.Rank() {
		t.Fatalf("purchase should rank after intent")
	}
	if !IsKnownStage("intent") || IsKnownStage("Intent") {
		t.Fatalf("stage lookup should be exact")
	}
}

func TestConversionRate(t *testing.T) {
	cases := []struct{ converted, total, want int }{
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{5, 5, 100},
	}
	for _, tc := range cases {
		if got := ConversionRate(tc.converted, tc.total); got != tc.want {
			t.Errorf("ConversionRate(%d, %d) = %d, want %d", tc.converted, tc.total, got, tc.want)
		}
	}
}

func TestRawLeadDecodesPostContent(t *testing.T) {
	var raw RawLead
	if err := json.Unmarshal([]byte(`{"name":"Jessica Park","source":"reddit.com/r/cars","postContent":"Looking to buy"}`), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if raw.RawText != "Looking to buy" {
		t.Fatalf("post content not decoded, got %q", raw.RawText)
	}
}

func TestStoredPostContentTruncatesOnRuneBoundary(t *testing.T) {
	short := "ready to buy"
	if got := StoredPostContent(short); got != short {
		t.Fatalf("short text changed: %q", got)
	}

	long := strings.Repeat("é", MaxStoredPostContent+5)
	got := StoredPostContent(long)
	if !utf8.ValidString(got) || utf8.RuneCountInString(got) != MaxStoredPostContent {
		t.Fatalf("expected %d valid runes, got %d", MaxStoredPostContent, utf8.RuneCountInString(got))
	}
}
