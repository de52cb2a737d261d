package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/bulletinlens/internal/article"
)

// MarkdownParser handles Markdown bulletins using goldmark. ATX and setext
// headings keep their level; every other line of block content becomes its
// own body paragraph, so "Back to Top" works without surrounding blank
// lines.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*article.Source, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	out := &article.Source{Name: sourceName(filename), Kind: article.KindStructured}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			var buf bytes.Buffer
			writeInline(&buf, h, src)
			out.Paragraphs = append(out.Paragraphs, article.Paragraph{
				Text:         strings.TrimSpace(buf.String()),
				HeadingLevel: h.Level,
			})
			continue
		}
		for _, line := range strings.Split(blockText(n, src), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out.Paragraphs = append(out.Paragraphs, article.Paragraph{Text: line})
			}
		}
	}
	return out, nil
}

// blockText returns a block's text with source line breaks kept.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	switch n.(type) {
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		return buf.String()
	}
	writeInline(&buf, n, src)
	return buf.String()
}

func writeInline(buf *bytes.Buffer, n ast.Node, src []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			writeInline(buf, c, src)
			if c.Type() == ast.TypeBlock {
				buf.WriteByte('\n')
			}
		}
	}
}
