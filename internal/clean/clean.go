// Package clean turns a raw article collection into the deduplicated set
// that gets persisted and analyzed.
package clean

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/dgallion1/bulletinlens/internal/article"
	"github.com/dgallion1/bulletinlens/internal/dedupe"
)

var (
	ErrConflictingSource = errors.New("clean: only one of articles or store path may be given")
	ErrNoSource          = errors.New("clean: articles or store path is required")
)

// Source names where the articles to clean come from. Exactly one field
// must be set.
type Source struct {
	Articles  []article.Article
	StorePath string
}

// Options control the cleaning steps.
type Options struct {
	// Threshold is the title similarity above which later articles are
	// dropped. Zero selects dedupe.DefaultThreshold.
	Threshold int
	// StripPunctuation removes everything except letters, digits,
	// underscores and whitespace from bodies.
	StripPunctuation bool
}

// Store is the part of the record store the cleaner needs.
type Store interface {
	Articles(ctx context.Context) ([]article.Article, error)
	ReplaceArticles(ctx context.Context, articles []article.Article) error
	Close() error
}

// Opener opens the store at path.
type Opener func(ctx context.Context, path string) (Store, error)

// Result is a cleaned article set with counts for logging.
type Result struct {
	Articles      []article.Article
	Input         int
	ExactDupes    int
	SimilarTitles int
}

var punctuation = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// Clean validates src and cleans its articles. When src names a store, the
// stored set is read, cleaned and written back.
func Clean(ctx context.Context, src Source, opts Options, open Opener) (*Result, error) {
	switch {
	case src.Articles != nil && src.StorePath != "":
		return nil, ErrConflictingSource
	case src.Articles != nil:
		return Articles(src.Articles, opts), nil
	case src.StorePath != "":
		if open == nil {
			return nil, fmt.Errorf("clean store %s: no opener configured", src.StorePath)
		}
		st, err := open(ctx, src.StorePath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
		return FromStore(ctx, st, opts)
	}
	return nil, ErrNoSource
}

// FromStore cleans the article set held by st and replaces it.
func FromStore(ctx context.Context, st Store, opts Options) (*Result, error) {
	arts, err := st.Articles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load articles: %w", err)
	}
	res := Articles(arts, opts)
	if err := st.ReplaceArticles(ctx, res.Articles); err != nil {
		return nil, fmt.Errorf("replace articles: %w", err)
	}
	return res, nil
}

// Articles cleans an in-memory collection. The input slice is not modified.
func Articles(arts []article.Article, opts Options) *Result {
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = dedupe.DefaultThreshold
	}

	unique := exactDedupe(arts)
	similar := dedupe.Titles(unique, threshold)

	if opts.StripPunctuation {
		for i := range similar {
			similar[i].Body = punctuation.ReplaceAllString(similar[i].Body, "")
		}
	}

	return &Result{
		Articles:      similar,
		Input:         len(arts),
		ExactDupes:    len(arts) - len(unique),
		SimilarTitles: len(unique) - len(similar),
	}
}

func exactDedupe(arts []article.Article) []article.Article {
	seen := make(map[article.Article]struct{}, len(arts))
	out := make([]article.Article, 0, len(arts))
	for _, a := range arts {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
