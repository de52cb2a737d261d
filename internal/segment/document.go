package segment

import (
	"strings"

	"github.com/dgallion1/bulletinlens/internal/article"
)

// DefaultHeadingLevel marks the first section of a bulletin document.
// Everything before the first paragraph at this level is preamble.
const DefaultHeadingLevel = 2

// Segmenter extracts articles from parsed sources.
type Segmenter struct {
	matcher      *Matcher
	headingLevel int
}

// New returns a Segmenter. headingLevel <= 0 selects DefaultHeadingLevel.
func New(headingLevel int) *Segmenter {
	if headingLevel <= 0 {
		headingLevel = DefaultHeadingLevel
	}
	return &Segmenter{matcher: NewMatcher(), headingLevel: headingLevel}
}

// FromSource dispatches on the source kind.
func (s *Segmenter) FromSource(src *article.Source) []article.Article {
	switch src.Kind {
	case article.KindStructured:
		return s.Document(src.Paragraphs)
	case article.KindLines:
		return s.Lines(src.Lines)
	case article.KindPrebuilt:
		out := make([]article.Article, len(src.Articles))
		copy(out, src.Articles)
		return out
	}
	return nil
}

// Document segments a styled paragraph sequence. Paragraphs before the first
// one at the distinguished heading level are dropped; a document without such
// a paragraph yields no articles.
//
// A paragraph matching the heading grammar opens an article. Following
// paragraphs, stripped, form the body until one equals EndMarker. Headings
// inside an open article are body text. An article still open at the end of
// the document is emitted with what was collected.
//
// Blank paragraphs are left out of the body. Joining every stripped
// paragraph instead would add one empty piece, and so a doubled space, per
// blank spacer paragraph.
func (s *Segmenter) Document(paragraphs []article.Paragraph) []article.Article {
	start := -1
	for i, p := range paragraphs {
		if p.HeadingLevel == s.headingLevel {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	var (
		out   []article.Article
		title string
		open  bool
		body  []string
	)
	for _, p := range paragraphs[start:] {
		if !open {
			if t, ok := s.matcher.Match(p.Text); ok {
				title, open, body = t, true, nil
			}
			continue
		}

		text := strings.TrimSpace(p.Text)
		if text == EndMarker {
			out = append(out, article.Article{Title: title, Body: strings.Join(body, " ")})
			open = false
			continue
		}
		if text != "" {
			body = append(body, text)
		}
	}
	if open {
		out = append(out, article.Article{Title: title, Body: strings.Join(body, " ")})
	}
	return out
}
