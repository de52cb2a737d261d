package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/dgallion1/bulletinlens/internal/article"
)

// SaveArticles appends the articles of arts not already stored with the same
// title and text, in one transaction, and returns how many were inserted.
// Repeats within arts are inserted once.
func (s *Store) SaveArticles(ctx context.Context, arts []article.Article) (int, error) {
	if len(arts) == 0 {
		return 0, nil
	}
	var inserted int
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		seen, err := storedArticleKeys(ctx, tx, s.sb)
		if err != nil {
			return err
		}
		fresh := make([]article.Article, 0, len(arts))
		for _, a := range arts {
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			fresh = append(fresh, a)
		}
		inserted = len(fresh)
		return s.insertArticles(ctx, tx, fresh)
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func storedArticleKeys(ctx context.Context, tx *sql.Tx, sb sq.StatementBuilderType) (map[article.Article]struct{}, error) {
	query, args, err := sb.Select("title", "article_text").From("articles").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	seen := make(map[article.Article]struct{})
	for rows.Next() {
		var title, body sql.NullString
		if err := rows.Scan(&title, &body); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		seen[article.Article{Title: title.String, Body: body.String}] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return seen, nil
}

// ReplaceArticles swaps the whole article table for arts.
func (s *Store) ReplaceArticles(ctx context.Context, arts []article.Article) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := exec(ctx, tx, s.sb.Delete("articles")); err != nil {
			return fmt.Errorf("clear articles: %w", err)
		}
		return s.insertArticles(ctx, tx, arts)
	})
}

// Articles returns every stored article in insertion order.
func (s *Store) Articles(ctx context.Context) ([]article.Article, error) {
	return s.queryArticles(ctx, s.sb.
		Select("title", "article_text").
		From("articles").
		OrderBy("id"))
}

// UnanalyzedArticles returns the distinct stored articles that have no
// analysis row with the same title and text, in first-insertion order.
func (s *Store) UnanalyzedArticles(ctx context.Context) ([]article.Article, error) {
	return s.queryArticles(ctx, s.sb.
		Select("a.title", "a.article_text").
		From("articles a").
		Where(`NOT EXISTS (SELECT 1 FROM article_analysis aa
			WHERE aa.title = a.title AND aa.article_text = a.article_text)`).
		GroupBy("a.title", "a.article_text").
		OrderBy("MIN(a.id)"))
}

// ArticleCount returns the number of stored articles.
func (s *Store) ArticleCount(ctx context.Context) (int, error) {
	return s.count(ctx, "articles")
}

func (s *Store) queryArticles(ctx context.Context, b sq.SelectBuilder) ([]article.Article, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var out []article.Article
	for rows.Next() {
		var a article.Article
		var title, body sql.NullString
		if err := rows.Scan(&title, &body); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.Title, a.Body = title.String, body.String
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func (s *Store) count(ctx context.Context, table string) (int, error) {
	query, args, err := s.sb.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
