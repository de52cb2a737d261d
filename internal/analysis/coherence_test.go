package analysis

import (
	"math"
	"testing"
)

func TestCoherenceDegenerate(t *testing.T) {
	for _, text := range []string{
		"",
		"No period here",
		"Just one sentence.",
		"One sentence. ... !",
	} {
		if got := Coherence(text); got != 1.0 {
			t.Errorf("%q: expected 1.0, got %v", text, got)
		}
	}
}

func TestCoherenceIdenticalSentences(t *testing.T) {
	got := Coherence("Dogs bark loudly. Dogs bark loudly.")
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("expected 1.0, got %v", got)
	}
}

func TestCoherenceDisjointSentences(t *testing.T) {
	got := Coherence("Cats sleep. Birds fly.")
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("expected 0.5, got %v", got)
	}
}

func TestCoherencePartialOverlap(t *testing.T) {
	// Three sentences sharing "budget": strictly between disjoint and identical.
	got := Coherence("Budget cuts loom. Budget talks resume. Budget vote delayed.")
	if got <= 1.0/3 || got >= 1 {
		t.Errorf("expected value in (1/3, 1), got %v", got)
	}
}

func TestCoherenceIgnoresSingleLetterTerms(t *testing.T) {
	// "a" is not a term, so the second piece is trivial.
	if got := Coherence("Real sentence here. a"); got != 1.0 {
		t.Errorf("expected 1.0, got %v", got)
	}
}
