package analysis

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/bulletinlens/internal/chunker"
)

// NegativeThreshold is the compound score at or below which a word counts
// as strongly negative.
const NegativeThreshold = -0.5

// vaderAlpha approximates the maximum expected valence in VADER's
// normalization.
const vaderAlpha = 15

// Lexicon scores a single word in [-1, 1].
type Lexicon interface {
	Compound(word string) float64
}

// VaderLexicon scores words from a VADER-format lexicon
// (word<TAB>mean<TAB>stddev<TAB>ratings).
type VaderLexicon struct {
	valence map[string]float64
}

// NewVaderLexicon builds a lexicon from word valences. Keys are lowercased.
func NewVaderLexicon(valence map[string]float64) *VaderLexicon {
	m := make(map[string]float64, len(valence))
	for w, v := range valence {
		m[strings.ToLower(w)] = v
	}
	return &VaderLexicon{valence: m}
}

// LoadVaderLexicon reads a VADER-format lexicon. Blank lines are skipped.
func LoadVaderLexicon(r io.Reader) (*VaderLexicon, error) {
	valence := make(map[string]float64)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("lexicon line %d: expected word and valence", line)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("lexicon line %d: %w", line, err)
		}
		valence[strings.ToLower(fields[0])] = v
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return &VaderLexicon{valence: valence}, nil
}

// OpenVaderLexicon loads the lexicon file at path.
func OpenVaderLexicon(path string) (*VaderLexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lexicon: %w", err)
	}
	defer f.Close()
	return LoadVaderLexicon(f)
}

// Len returns the number of lexicon entries.
func (l *VaderLexicon) Len() int { return len(l.valence) }

// Compound scores word the way VADER scores a one-word text. Single
// characters and unknown words are neutral.
func (l *VaderLexicon) Compound(word string) float64 {
	if utf8.RuneCountInString(word) < 2 {
		return 0
	}
	v, ok := l.valence[strings.ToLower(word)]
	if !ok || v == 0 {
		return 0
	}
	score := v / math.Sqrt(v*v+vaderAlpha)
	return max(-1, min(1, score))
}

// NegativeWords returns the words of text the lexicon scores at or below
// NegativeThreshold, in text order with duplicates kept.
func NegativeWords(lex Lexicon, text string) []string {
	var out []string
	for _, w := range chunker.Words(text) {
		if lex.Compound(w) <= NegativeThreshold {
			out = append(out, w)
		}
	}
	return out
}
