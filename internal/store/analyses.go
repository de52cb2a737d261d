package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/dgallion1/bulletinlens/internal/article"
)

// DefaultSubjectivityThreshold splits objective from subjective articles.
const DefaultSubjectivityThreshold = 0.5

// SentimentPoint pairs an analysis' sentiment label with its subjectivity.
type SentimentPoint struct {
	Sentiment    string  `json:"sentiment"`
	Subjectivity float64 `json:"subjectivity"`
}

// SaveAnalyses appends analyses in one transaction.
func (s *Store) SaveAnalyses(ctx context.Context, analyses []article.Analysis) error {
	if len(analyses) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for start := 0; start < len(analyses); start += insertBatch {
			end := min(start+insertBatch, len(analyses))
			ins := s.sb.Insert("article_analysis").
				Columns("title", "article_text", "sentiment", "polarity", "subjectivity", "coherence", "topics")
			for _, a := range analyses[start:end] {
				ins = ins.Values(a.Title, a.Text, a.Sentiment, a.Polarity, a.Subjectivity, a.Coherence, a.Topics)
			}
			if err := exec(ctx, tx, ins); err != nil {
				return fmt.Errorf("insert analyses: %w", err)
			}
		}
		return nil
	})
}

// AnalysesBySentiment returns title, text and topics of every analysis with
// the given sentiment label, in insertion order.
func (s *Store) AnalysesBySentiment(ctx context.Context, sentiment string) ([]article.Analysis, error) {
	query, args, err := s.sb.
		Select("title", "article_text", "topics").
		From("article_analysis").
		Where(sq.Eq{"sentiment": sentiment}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var out []article.Analysis
	for rows.Next() {
		var title, text, topics sql.NullString
		if err := rows.Scan(&title, &text, &topics); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, article.Analysis{
			Title:     title.String,
			Text:      text.String,
			Sentiment: sentiment,
			Topics:    topics.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// SubjectivityDistribution returns every stored subjectivity score.
func (s *Store) SubjectivityDistribution(ctx context.Context) ([]float64, error) {
	query, args, err := s.sb.Select("subjectivity").From("article_analysis").OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query subjectivity: %w", err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v sql.NullFloat64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan subjectivity: %w", err)
		}
		out = append(out, v.Float64)
	}
	return out, rows.Err()
}

// TitlesBySubjectivity returns titles of objective analyses (subjectivity
// below threshold) or, when objective is false, subjective ones (at or
// above threshold).
func (s *Store) TitlesBySubjectivity(ctx context.Context, threshold float64, objective bool) ([]string, error) {
	var cond sq.Sqlizer = sq.GtOrEq{"subjectivity": threshold}
	if objective {
		cond = sq.Lt{"subjectivity": threshold}
	}
	query, args, err := s.sb.Select("title").From("article_analysis").Where(cond).OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query titles: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var title sql.NullString
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		out = append(out, title.String)
	}
	return out, rows.Err()
}

// SentimentSubjectivity returns (sentiment, subjectivity) for every analysis.
func (s *Store) SentimentSubjectivity(ctx context.Context) ([]SentimentPoint, error) {
	query, args, err := s.sb.Select("sentiment", "subjectivity").From("article_analysis").OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sentiment: %w", err)
	}
	defer rows.Close()

	var out []SentimentPoint
	for rows.Next() {
		var label sql.NullString
		var v sql.NullFloat64
		if err := rows.Scan(&label, &v); err != nil {
			return nil, fmt.Errorf("scan sentiment: %w", err)
		}
		out = append(out, SentimentPoint{Sentiment: label.String, Subjectivity: v.Float64})
	}
	return out, rows.Err()
}

// AnalysisCount returns the number of stored analyses.
func (s *Store) AnalysisCount(ctx context.Context) (int, error) {
	return s.count(ctx, "article_analysis")
}
