package scoring

import (
	"slices"
	"testing"
)

func TestScoreEmptyText(t *testing.T) {
	s := NewScorer(DefaultCatalog())
	for _, text := range []string{"", "   ", "\n\t"} {
		res := s.Score(text, Metadata{})
		if res.Score != 0 || len(res.Interests) != 0 {
			t.Fatalf("expected zero result for %q, got %+v", text, res)
		}
	}
}

func TestScoreHighIntentWithUrgency(t *testing.T) {
	s := NewScorer(DefaultCatalog())
	text := "Looking to buy a reliable Honda Civic this week. Have financing approved and ready to make a deal."

	res := s.Score(text, Metadata{Source: "reddit.com/r/cars"})
	if res.Score < 85 {
		t.Fatalf("expected score >= 85, got %d", res.Score)
	}
	if !slices.Contains(res.Interests, "honda civic") {
		t.Fatalf("expected honda civic interest, got %v", res.Interests)
	}
	if res.Factors.UrgencyMultiplier != DefaultUrgencyMultiplier {
		t.Fatalf("expected urgency multiplier, got %v", res.Factors.UrgencyMultiplier)
	}
	if res.Factors.Source != "reddit.com/r/cars" {
		t.Fatalf("metadata should be carried into factors")
	}
}

func TestScoreNegativePhrasesFloorAtZero(t *testing.T) {
	s := NewScorer(DefaultCatalog())
	text := "Just browsing car lots today. Maybe thinking about upgrading my sedan to something newer. Not in a rush though."

	res := s.Score(text, Metadata{})
	if res.Score != 0 {
		t.Fatalf("expected floored score 0, got %d (factors %+v)", res.Score, res.Factors)
	}
	if res.Factors.NegativePenalty != 40 {
		t.Fatalf("expected penalty 40, got %d", res.Factors.NegativePenalty)
	}
}

func TestScoreIsBoundedAndDeterministic(t *testing.T) {
	s := NewScorer(DefaultCatalog())
	texts := []string{
		"ready to buy looking to buy want to buy financing approved pre-approved cash in hand test drive asap",
		"not interested, already bought, just curious, no rush",
		"comparing dealer quote for a new car",
		"HONDA CIVIC or TOYOTA CAMRY, best price TODAY",
		"nothing relevant here",
	}
	for _, text := range texts {
		first := s.Score(text, Metadata{})
		if first.Score < 0 || first.Score > 100 {
			t.Fatalf("score out of range for %q: %d", text, first.Score)
		}
		for range 3 {
			again := s.Score(text, Metadata{})
			if again.Score != first.Score || !slices.Equal(again.Interests, first.Interests) {
				t.Fatalf("non-deterministic result for %q", text)
			}
		}
	}
}

func TestScoreMonotonicPhraseAccumulation(t *testing.T) {
	s := NewScorer(DefaultCatalog())
	base := "thinking about a vehicle"
	prev := s.Score(base, Metadata{}).Score

	for _, phrase := range []string{"comparing", "best price", "test drive", "ready to buy", "warranty"} {
		base += " " + phrase
		next := s.Score(base, Metadata{}).Score
		if next < prev {
			t.Fatalf("adding %q decreased score from %d to %d", phrase, prev, next)
		}
		prev = next
	}
}

func TestScoreRoundsHalfAwayFromZero(t *testing.T) {
	cat := Catalog{
		LowWeight:         7,
		UrgencyMultiplier: 1.5,
		Low:               []string{"car"},
		Urgency:           []string{"today"},
	}
	res := NewScorer(cat).Score("car today", Metadata{})
	if res.Score != 11 {
		t.Fatalf("expected 10.5 to round to 11, got %d", res.Score)
	}
}

func TestInterestsFollowCatalogOrderWithoutDuplicates(t *testing.T) {
	s := NewScorer(DefaultCatalog())
	got := s.ExtractInterests("SUV or sedan? maybe a suv. Honda Civic vs Toyota Camry, honda civic again")
	want := []string{"honda civic", "toyota camry", "suv", "sedan"}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNewScorerCopiesCatalog(t *testing.T) {
	cat := DefaultCatalog()
	s := NewScorer(cat)
	before := s.Score("ready to buy", Metadata{}).Score

	cat.High[0] = "something else"
	if after := s.Score("ready to buy", Metadata{}).Score; after != before {
		t.Fatalf("scorer changed after caller mutated catalog: %d -> %d", before, after)
	}
}

func TestParseCatalogOverlaysDefaults(t *testing.T) {
	data := []byte(`
scoring:
  highWeight: 30
  high: ["sign the papers"]
stages:
  purchase: ["sign the papers"]
`)
	file, err := ParseCatalog(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if file.Scoring.HighWeight != 30 || file.Scoring.MediumWeight != DefaultMediumWeight {
		t.Fatalf("unexpected weights %+v", file.Scoring)
	}
	if !slices.Equal(file.Scoring.High, []string{"sign the papers"}) {
		t.Fatalf("high phrases not overridden: %v", file.Scoring.High)
	}
	if len(file.Scoring.Negative) == 0 {
		t.Fatalf("negative phrases should keep defaults")
	}
	if got := file.Stages["purchase"]; len(got) != 1 {
		t.Fatalf("expected stage override, got %v", got)
	}
}

func TestParseCatalogRejectsBadMultiplier(t *testing.T) {
	if _, err := ParseCatalog([]byte("scoring:\n  urgencyMultiplier: 0.5\n")); err == nil {
		t.Fatalf("expected error for multiplier below 1")
	}
}
