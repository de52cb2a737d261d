package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/bulletinlens/internal/article"
)

// Column names of an exported article table, matched case-insensitively.
const (
	ColumnTitle = "title"
	ColumnText  = "article_text"
)

// CSVParser loads a previously extracted article table. Missing cells are
// empty strings.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*article.Source, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	src := &article.Source{Name: sourceName(filename), Kind: article.KindPrebuilt, Articles: []article.Article{}}

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return src, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	titleCol, textCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case ColumnTitle:
			titleCol = i
		case ColumnText:
			textCol = i
		}
	}
	if titleCol < 0 || textCol < 0 {
		return nil, fmt.Errorf("parse csv: header must contain %s and %s columns", ColumnTitle, ColumnText)
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		src.Articles = append(src.Articles, article.Article{
			Title: cell(row, titleCol),
			Body:  cell(row, textCol),
		})
	}
	return src, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
