package analysis

import (
	"math"
	"regexp"
	"strings"

	"github.com/dgallion1/bulletinlens/internal/chunker"
)

// termRe matches runs of two or more word characters.
var termRe = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Coherence returns the mean pairwise cosine similarity between the TF-IDF
// vectors of text's sentences, diagonal included. Sentences without terms are
// ignored; fewer than two remaining sentences score 1.0.
//
// Weighting follows the common smoothed form: tf is the raw count and
// idf = ln((1+n)/(1+df)) + 1, with each vector L2-normalized.
func Coherence(text string) float64 {
	var docs []map[string]float64
	for _, s := range chunker.Sentences(text) {
		terms := termRe.FindAllString(strings.ToLower(s), -1)
		if len(terms) == 0 {
			continue
		}
		tf := make(map[string]float64, len(terms))
		for _, t := range terms {
			tf[t]++
		}
		docs = append(docs, tf)
	}
	n := len(docs)
	if n < 2 {
		return 1.0
	}

	df := make(map[string]int)
	for _, d := range docs {
		for t := range d {
			df[t]++
		}
	}

	for _, d := range docs {
		var norm float64
		for t, c := range d {
			w := c * (math.Log(float64(1+n)/float64(1+df[t])) + 1)
			d[t] = w
			norm += w * w
		}
		norm = math.Sqrt(norm)
		for t := range d {
			d[t] /= norm
		}
	}

	var sum float64
	for i := range docs {
		sum++ // self-similarity
		for j := i + 1; j < n; j++ {
			sum += 2 * dot(docs[i], docs[j])
		}
	}
	return min(1, sum/float64(n*n))
}

func dot(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var s float64
	for t, w := range a {
		s += w * b[t]
	}
	return s
}
