package analysis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// DefaultFacilities are facility names reported when they appear in a text.
var DefaultFacilities = []string{
	"VA Medical Center",
	"VA Hospital",
	"Veterans Affairs",
	"VA Clinic",
}

// DefaultKeyPhrases are policy phrases checked alongside extracted entities.
var DefaultKeyPhrases = []string{
	"PACT",
	"MISSION Act",
	"burn pit",
	"toxic exposure",
	"mental health",
	"PTSD",
	"Veteran suicide",
	"military sexual trauma",
	"Disability benefits",
	"healthcare access",
	"Community Care",
}

// Insight is the per-article briefing.
type Insight struct {
	Summary             string   `json:"summary"`
	KeyPhrases          []string `json:"key_phrases"`
	Facilities          []string `json:"va_facilities"`
	KeyPhrasesDiscussed []string `json:"key_phrases_discussed"`
}

// Insights summarizes text and reports the entities, facilities and key
// phrases it mentions. Facilities match case-sensitively; discussed phrases
// match case-insensitively and are returned sorted without duplicates.
func (a *Analyzer) Insights(ctx context.Context, text string) (*Insight, error) {
	if a.summarizer == nil || a.entities == nil {
		return nil, errors.New("insights: summarizer and entity extractor are required")
	}

	summary, err := a.summarizer.Summarize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	extracted, err := a.entities.Entities(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("extract entities: %w", err)
	}

	ins := &Insight{
		Summary:             summary,
		KeyPhrases:          extracted,
		Facilities:          []string{},
		KeyPhrasesDiscussed: []string{},
	}
	if ins.KeyPhrases == nil {
		ins.KeyPhrases = []string{}
	}
	for _, f := range a.opts.Facilities {
		if strings.Contains(text, f) {
			ins.Facilities = append(ins.Facilities, f)
		}
	}

	lower := strings.ToLower(text)
	candidates := append(slices.Clone(extracted), a.opts.KeyPhrases...)
	for _, p := range candidates {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			ins.KeyPhrasesDiscussed = append(ins.KeyPhrasesDiscussed, p)
		}
	}
	slices.Sort(ins.KeyPhrasesDiscussed)
	ins.KeyPhrasesDiscussed = slices.Compact(ins.KeyPhrasesDiscussed)
	return ins, nil
}
