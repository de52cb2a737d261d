package topics

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/bulletinlens/internal/article"
)

// mapTagger tags words from a fixed table, defaulting to NN.
type mapTagger map[string]string

func (m mapTagger) Tag(words []string) ([]Token, error) {
	out := make([]Token, len(words))
	for i, w := range words {
		tag, ok := m[w]
		if !ok {
			tag = "NN"
		}
		out[i] = Token{Text: w, Tag: tag}
	}
	return out, nil
}

type failingTagger struct{}

func (failingTagger) Tag([]string) ([]Token, error) { return nil, errors.New("no model") }

func TestCountFiltersExcludedAndTags(t *testing.T) {
	agg := NewAggregator(mapTagger{"quickly": "RB", "deadly": "JJ", "killed": "VBD", "die": "VB"}, nil, nil)
	analyses := []article.Analysis{
		{Title: "A", Topics: "crisis, Trump, deadly, crisis"},
		{Title: "B", Topics: "VA, killed, die, quickly"},
	}

	got, err := agg.Count(analyses)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	want := []article.TopicCount{{Word: "crisis", Count: 2}, {Word: "die", Count: 1}, {Word: "quickly", Count: 1}}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestCountTaggerError(t *testing.T) {
	agg := NewAggregator(failingTagger{}, nil, nil)
	if _, err := agg.Count([]article.Analysis{{Topics: "crisis"}}); err == nil {
		t.Fatal("expected tagger error")
	}
}

func TestRankStableTies(t *testing.T) {
	counts := []article.TopicCount{{Word: "a", Count: 1}, {Word: "b", Count: 3}, {Word: "c", Count: 1}, {Word: "d", Count: 3}, {Word: "e", Count: 2}}

	got := Rank(counts, 4)
	order := make([]string, len(got))
	for i, c := range got {
		order[i] = c.Word
	}
	if strings.Join(order, ",") != "b,d,e,a" {
		t.Errorf("expected b,d,e,a, got %s", strings.Join(order, ","))
	}
	if counts[0].Word != "a" {
		t.Error("expected input to be left unsorted")
	}
	if len(Rank(counts, 0)) != 0 {
		t.Error("expected empty result for topN=0")
	}
	if len(Rank(counts, 10)) != 5 {
		t.Error("expected all counts when topN exceeds length")
	}
}

func TestAssociateUsesSubstring(t *testing.T) {
	analyses := []article.Analysis{
		{Title: "Zeta", Topics: "react, fail"},
		{Title: "Alpha", Topics: "act"},
		{Title: "Mid", Topics: "fail"},
	}
	rows := Associate([]article.TopicCount{{Word: "act", Count: 2}, {Word: "none", Count: 1}}, analyses)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0].Titles, ",") != "Alpha,Zeta" {
		t.Errorf("expected sorted substring matches, got %v", rows[0].Titles)
	}
	if len(rows[1].Titles) != 0 {
		t.Errorf("expected no titles for unmatched word, got %v", rows[1].Titles)
	}
}

func TestReportProperties(t *testing.T) {
	analyses := []article.Analysis{
		{Title: "A", Topics: "spending, cuts, fraud"},
		{Title: "B", Topics: "fraud, delays"},
		{Title: "C", Topics: "delays, fraud, backlog"},
	}
	const topN = 2
	rows, err := NewAggregator(mapTagger{}, nil, nil).Report(analyses, topN)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(rows) > topN {
		t.Fatalf("expected at most %d rows, got %d", topN, len(rows))
	}
	if rows[0].Topic != "fraud" || rows[1].Topic != "delays" {
		t.Errorf("unexpected ranking %v", rows)
	}
	byTitle := map[string]string{}
	for _, an := range analyses {
		byTitle[an.Title] = an.Topics
	}
	for _, r := range rows {
		for _, title := range r.Titles {
			if !strings.Contains(byTitle[title], r.Topic) {
				t.Errorf("title %s does not mention %s", title, r.Topic)
			}
		}
	}
}

func TestPolicyScenarioCSV(t *testing.T) {
	analyses := []article.Analysis{
		{Title: "A", Topics: "policy, cuts"},
		{Title: "B", Topics: "policy, reform"},
	}
	rows, err := NewAggregator(mapTagger{}, nil, nil).Report(analyses, 1)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "Topic,Titles\r\npolicy,\"A\r\nB\"\r\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if buf.String() != "Topic,Titles\r\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestProseTagger(t *testing.T) {
	toks, err := ProseTagger{}.Tag([]string{"fraud", "crisis"})
	if err != nil {
		t.Fatalf("Tag: %v", err)
	}
	if len(toks) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(toks))
	}
	for _, tok := range toks {
		if tok.Tag == "" {
			t.Errorf("expected a tag for %q", tok.Text)
		}
	}
	if toks, _ := (ProseTagger{}).Tag(nil); toks != nil {
		t.Errorf("expected nil for no words, got %v", toks)
	}
}
