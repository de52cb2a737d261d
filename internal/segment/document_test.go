package segment

import (
	"testing"

	"github.com/dgallion1/bulletinlens/internal/article"
)

func para(text string, level int) article.Paragraph {
	return article.Paragraph{Text: text, HeadingLevel: level}
}

func TestDocumentBasicArticle(t *testing.T) {
	paras := []article.Paragraph{
		para("Daily Bulletin", 1),
		para("Section One", 2),
		para("3.2 - ExampleSource: Sample Headline (5 January)", 3),
		para("Line one.", 0),
		para("Line two.", 0),
		para("Back to Top", 0),
	}

	got := New(0).Document(paras)
	if len(got) != 1 {
		t.Fatalf("expected 1 article, got %d", len(got))
	}
	if got[0].Title != "3.2 - ExampleSource: Sample Headline (5 January)" {
		t.Errorf("unexpected title %q", got[0].Title)
	}
	if got[0].Body != "Line one. Line two." {
		t.Errorf("unexpected body %q", got[0].Body)
	}
}

func TestDocumentDropsPreamble(t *testing.T) {
	paras := []article.Paragraph{
		para("1.1 - TOC: Listed in contents (1 May)", 0),
		para("contents entry", 0),
		para("Back to Top", 0),
		para("Section One", 2),
		para("1.1 - Wire: Real article (1 May)", 3),
		para("Body.", 0),
		para("Back to Top", 0),
	}

	got := New(0).Document(paras)
	if len(got) != 1 {
		t.Fatalf("expected 1 article, got %d", len(got))
	}
	if got[0].Title != "1.1 - Wire: Real article (1 May)" {
		t.Errorf("unexpected title %q", got[0].Title)
	}
}

func TestDocumentWithoutSectionHeading(t *testing.T) {
	paras := []article.Paragraph{
		para("1.1 - Wire: Real article (1 May)", 3),
		para("Body.", 0),
		para("Back to Top", 0),
	}
	if got := New(0).Document(paras); len(got) != 0 {
		t.Errorf("expected no articles, got %d", len(got))
	}
}

func TestDocumentCustomHeadingLevel(t *testing.T) {
	paras := []article.Paragraph{
		para("Section One", 1),
		para("1.1 - Wire: Real article (1 May)", 0),
		para("Body.", 0),
		para("Back to Top", 0),
	}
	if got := New(1).Document(paras); len(got) != 1 {
		t.Errorf("expected 1 article, got %d", len(got))
	}
}

func TestDocumentBodyRules(t *testing.T) {
	paras := []article.Paragraph{
		para("Section", 2),
		para("2.1 - Wire: First (2 June)", 3),
		para("  padded  ", 0),
		para("", 0),
		para("   ", 0),
		para("Inner heading", 2),
		para("2.2 - Wire: Looks like a title (2 June)", 3),
		para(" Back to Top ", 0),
		para("stray text between articles", 0),
		para("2.3 - Wire: Second (3 June)", 3),
		para("Second body.", 0),
	}

	got := New(0).Document(paras)
	if len(got) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(got))
	}
	want := "padded Inner heading 2.2 - Wire: Looks like a title (2 June)"
	if got[0].Body != want {
		t.Errorf("expected body %q, got %q", want, got[0].Body)
	}
	// Open at end of document.
	if got[1].Title != "2.3 - Wire: Second (3 June)" || got[1].Body != "Second body." {
		t.Errorf("unexpected trailing article %+v", got[1])
	}
}

func TestFromSource(t *testing.T) {
	s := New(0)

	prebuilt := &article.Source{
		Kind:     article.KindPrebuilt,
		Articles: []article.Article{{Title: "a", Body: "b"}},
	}
	if got := s.FromSource(prebuilt); len(got) != 1 || got[0].Title != "a" {
		t.Errorf("unexpected prebuilt result %+v", got)
	}

	structured := &article.Source{
		Kind: article.KindStructured,
		Paragraphs: []article.Paragraph{
			para("Section", 2),
			para("1.1 - Wire: T (1 May)", 3),
			para("x", 0),
			para("Back to Top", 0),
		},
	}
	if got := s.FromSource(structured); len(got) != 1 {
		t.Errorf("expected 1 structured article, got %d", len(got))
	}
}
