// Package topics ranks the negative words of negative articles and ties
// each top word back to the articles that mention it.
package topics

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dgallion1/bulletinlens/internal/article"
	"github.com/dgallion1/bulletinlens/internal/chunker"
)

// DefaultTopN is the report length used by scheduled runs.
const DefaultTopN = 25

// DefaultExcluded are names that dominate bulletin topics without saying
// anything. Compared lowercase.
var DefaultExcluded = []string{
	"donald", "trump", "defense", "department", "va", "vas", "affairs", "veteran",
}

// DefaultRelevantTags are the tags kept for counting, matched exactly: bare
// noun, base verb and adverb.
var DefaultRelevantTags = []string{"NN", "VB", "RB"}

// Aggregator counts topic words across analyses.
type Aggregator struct {
	tagger   Tagger
	excluded map[string]bool
	relevant map[string]bool
}

// NewAggregator returns an Aggregator. Nil lists select the defaults.
func NewAggregator(tagger Tagger, excluded, relevantTags []string) *Aggregator {
	if excluded == nil {
		excluded = DefaultExcluded
	}
	if relevantTags == nil {
		relevantTags = DefaultRelevantTags
	}
	a := &Aggregator{
		tagger:   tagger,
		excluded: make(map[string]bool, len(excluded)),
		relevant: make(map[string]bool, len(relevantTags)),
	}
	for _, w := range excluded {
		a.excluded[strings.ToLower(w)] = true
	}
	for _, t := range relevantTags {
		a.relevant[t] = true
	}
	return a
}

// Count tallies the surviving topic words of analyses, in first-seen order.
func (a *Aggregator) Count(analyses []article.Analysis) ([]article.TopicCount, error) {
	all := make([]string, len(analyses))
	for i, an := range analyses {
		all[i] = an.Topics
	}

	var words []string
	for _, w := range chunker.Words(strings.Join(all, " ")) {
		if !a.excluded[strings.ToLower(w)] {
			words = append(words, w)
		}
	}

	tagged, err := a.tagger.Tag(words)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var counts []article.TopicCount
	for _, tok := range tagged {
		if !a.relevant[tok.Tag] {
			continue
		}
		if i, ok := index[tok.Text]; ok {
			counts[i].Count++
			continue
		}
		index[tok.Text] = len(counts)
		counts = append(counts, article.TopicCount{Word: tok.Text, Count: 1})
	}
	return counts, nil
}

// Rank returns the topN most frequent words. Ties keep first-seen order.
func Rank(counts []article.TopicCount, topN int) []article.TopicCount {
	ranked := slices.Clone(counts)
	slices.SortStableFunc(ranked, func(a, b article.TopicCount) int {
		return b.Count - a.Count
	})
	if topN >= 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// Associate pairs each ranked word with the sorted titles whose topics
// string contains the word as a substring.
func Associate(top []article.TopicCount, analyses []article.Analysis) []article.ReportRow {
	rows := make([]article.ReportRow, 0, len(top))
	for _, tc := range top {
		var titles []string
		for _, an := range analyses {
			if strings.Contains(an.Topics, tc.Word) {
				titles = append(titles, an.Title)
			}
		}
		slices.Sort(titles)
		rows = append(rows, article.ReportRow{Topic: tc.Word, Titles: slices.Compact(titles)})
	}
	return rows
}

// Report counts, ranks and associates in one step.
func (a *Aggregator) Report(analyses []article.Analysis, topN int) ([]article.ReportRow, error) {
	counts, err := a.Count(analyses)
	if err != nil {
		return nil, err
	}
	return Associate(Rank(counts, topN), analyses), nil
}

// WriteCSV writes rows with a Topic,Titles header. Titles within a row are
// joined by CRLF.
func WriteCSV(w io.Writer, rows []article.ReportRow) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write([]string{"Topic", "Titles"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Topic, strings.Join(r.Titles, "\r\n")}); err != nil {
			return fmt.Errorf("write row %s: %w", r.Topic, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
