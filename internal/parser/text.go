package parser

import (
	"bufio"
	"io"

	"github.com/dgallion1/bulletinlens/internal/article"
)

// TextParser handles plain text dumps of PDF bulletins, such as pdftotext
// output. Lines are kept verbatim, blank ones included.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*article.Source, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	src := &article.Source{Name: sourceName(filename), Kind: article.KindLines}
	for scanner.Scan() {
		src.Lines = append(src.Lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return src, nil
}
