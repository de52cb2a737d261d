package segment

import (
	"strings"

	"github.com/dgallion1/bulletinlens/internal/article"
)

// Lines segments the flat line stream of a PDF bulletin.
//
// Lines are skipped until one contains FullTextMarker or its three-line
// lookahead window contains HyperlinkMarker; the triggering line is consumed.
// While reading, a window matching the heading grammar opens an article, and
// non-empty lines accumulate until a line equal to EndMarker closes it. The
// body is the lines joined by spaces with any copy of the title removed.
//
// The final article is always dropped: these PDFs end with a trailer region
// shaped like an article.
func (s *Segmenter) Lines(lines []string) []article.Article {
	var (
		out     []article.Article
		reading bool
		open    bool
		title   string
		content []string
	)

	for i, line := range lines {
		window := lookahead(lines, i)

		// The markers are honoured in every state, so a marker line inside an
		// article is consumed rather than collected.
		if strings.Contains(line, FullTextMarker) || strings.Contains(window, HyperlinkMarker) {
			reading = true
			continue
		}
		if !reading {
			continue
		}

		if !open {
			if t, ok := s.matcher.Match(strings.TrimSpace(window)); ok {
				title, open, content = t, true, nil
			}
			continue
		}

		if strings.TrimSpace(line) == EndMarker {
			body := strings.ReplaceAll(strings.Join(content, " "), title, "")
			out = append(out, article.Article{Title: title, Body: strings.TrimSpace(body)})
			open = false
			continue
		}
		if line != "" {
			content = append(content, line)
		}
	}

	if len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out
}

// lookahead joins line i with up to two following lines, tolerating headings
// wrapped across physical lines.
func lookahead(lines []string, i int) string {
	window := lines[i]
	if i+1 < len(lines) {
		window += " " + lines[i+1]
	}
	if i+2 < len(lines) {
		window += " " + lines[i+2]
	}
	return window
}
