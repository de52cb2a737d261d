// Package segment carves individual bulletins out of raw document content.
//
// Two segmenters are provided. Document works on styled paragraphs (docx,
// html, markdown) and relies on a distinguished heading level to find where
// the bulletin bodies begin. Lines works on the flat text of a PDF, where
// styling is gone and headings may be wrapped across physical lines.
// Both recognize article titles with the same heading grammar.
package segment

import (
	"regexp"
	"strings"
)

// TitlePattern is the bulletin heading grammar:
//
//	<section>.<subsection> - <source>: <headline> (<day> <month>[, extra][ N.N uvm;][ extra])
//
// Word characters in the optional clauses are Unicode letters, numbers and
// underscore, so accented place names match. The month stays ASCII.
const TitlePattern = `(\d+\.\d+) - (.+?): (.+) \((\d{1,2}[\s\p{Z}][A-Za-z]+)(, [\p{L}\p{N}_ ,-]+)?( \d+.?[\p{L}\p{N}_]+ uvm;)?( [\p{L}\p{N}_ ,-]+)?\)`

// Structural markers, matched case-sensitively.
const (
	EndMarker       = "Back to Top"
	FullTextMarker  = "Full article text below"
	HyperlinkMarker = "Hyperlink to Above    Back to Top"
)

var titleRe = regexp.MustCompile(`^` + TitlePattern)

// Heading is a parsed bulletin title.
type Heading struct {
	Title    string   `json:"title"` // full matched text
	Section  string   `json:"section"`
	Source   string   `json:"source"`
	Headline string   `json:"headline"`
	Date     string   `json:"date"`
	Extras   []string `json:"extras,omitempty"`
}

// Matcher recognizes bulletin headings at the start of a text window.
type Matcher struct {
	re *regexp.Regexp
}

// NewMatcher returns a Matcher for TitlePattern.
func NewMatcher() *Matcher {
	return &Matcher{re: titleRe}
}

// Match reports whether window starts with a heading and returns the full
// matched heading text.
func (m *Matcher) Match(window string) (string, bool) {
	loc := m.re.FindStringIndex(window)
	if loc == nil {
		return "", false
	}
	return window[loc[0]:loc[1]], true
}

// Parse is like Match but also splits the heading into its fields.
func (m *Matcher) Parse(window string) (Heading, bool) {
	sub := m.re.FindStringSubmatch(window)
	if sub == nil {
		return Heading{}, false
	}
	h := Heading{
		Title:    sub[0],
		Section:  sub[1],
		Source:   sub[2],
		Headline: sub[3],
		Date:     sub[4],
	}
	for _, extra := range sub[5:] {
		extra = strings.TrimSpace(strings.TrimPrefix(extra, ","))
		if extra != "" {
			h.Extras = append(h.Extras, extra)
		}
	}
	return h, true
}
