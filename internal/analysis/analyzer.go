// Package analysis scores articles for sentiment, subjectivity and
// coherence, and pulls strongly negative words out of negative articles.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/bulletinlens/internal/article"
	"github.com/dgallion1/bulletinlens/internal/chunker"
	"github.com/dgallion1/bulletinlens/internal/classify"
)

// MaxPolarity bounds per-chunk polarity on both sides.
const MaxPolarity = 0.5

// Result is the analysis of one text.
type Result struct {
	Sentiment    string
	Polarity     float64
	Subjectivity float64
	Coherence    float64
	Topics       string
}

// Options configure an Analyzer.
type Options struct {
	ChunkSize     int
	MaxConcurrent int
	Facilities    []string
	KeyPhrases    []string
}

// Analyzer runs the per-article analysis against injected model clients.
type Analyzer struct {
	classifier classify.Classifier
	lexicon    Lexicon
	summarizer classify.Summarizer
	entities   classify.EntityExtractor
	log        *slog.Logger
	opts       Options
	backoff    func(attempt int) time.Duration
}

// New returns an Analyzer. summarizer and entities may be nil when Insights
// is not used.
func New(classifier classify.Classifier, lexicon Lexicon, summarizer classify.Summarizer, entities classify.EntityExtractor, log *slog.Logger, opts Options) *Analyzer {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = chunker.DefaultWindow
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	if opts.Facilities == nil {
		opts.Facilities = DefaultFacilities
	}
	if opts.KeyPhrases == nil {
		opts.KeyPhrases = DefaultKeyPhrases
	}
	return &Analyzer{
		classifier: classifier,
		lexicon:    lexicon,
		summarizer: summarizer,
		entities:   entities,
		log:        log,
		opts:       opts,
		backoff:    classify.Backoff,
	}
}

// Analyze scores text. Empty text is neutral with zero polarity and
// subjectivity and a coherence of 1.0.
func (a *Analyzer) Analyze(ctx context.Context, text string) (Result, error) {
	polarity, subjectivity, err := a.Bias(ctx, text)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Sentiment:    SentimentOf(polarity),
		Polarity:     polarity,
		Subjectivity: subjectivity,
		Coherence:    Coherence(text),
	}
	if res.Sentiment == article.Negative {
		res.Topics = strings.Join(NegativeWords(a.lexicon, text), ", ")
	}
	return res, nil
}

// SentimentOf labels a polarity by its sign.
func SentimentOf(polarity float64) string {
	switch {
	case polarity > 0:
		return article.Positive
	case polarity < 0:
		return article.Negative
	}
	return article.Neutral
}

// Bias classifies every chunk of text and returns mean polarity and
// subjectivity. Chunks are classified concurrently up to MaxConcurrent.
// Any chunk failure fails the whole text.
func (a *Analyzer) Bias(ctx context.Context, text string) (polarity, subjectivity float64, err error) {
	chunks := chunker.Windows(text, a.opts.ChunkSize)
	if len(chunks) == 0 {
		return 0, 0, nil
	}

	type chunkResult struct {
		pred classify.Prediction
		err  error
		idx  int
	}
	results := make(chan chunkResult, len(chunks))
	sem := make(chan struct{}, a.opts.MaxConcurrent)

	for i, chunk := range chunks {
		sem <- struct{}{}
		go func(i int, chunk string) {
			defer func() { <-sem }()
			pred, err := a.classify(ctx, i, chunk)
			results <- chunkResult{pred: pred, err: err, idx: i}
		}(i, chunk)
	}

	preds := make([]classify.Prediction, len(chunks))
	var firstErr error
	for range chunks {
		r := <-results
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("chunk %d: %w", r.idx, r.err)
			}
			continue
		}
		preds[r.idx] = r.pred
	}
	if firstErr != nil {
		return 0, 0, firstErr
	}

	for _, p := range preds {
		pol := p.Score
		if p.Label != classify.LabelPositive {
			pol = -pol
		}
		polarity += max(-MaxPolarity, min(MaxPolarity, pol))
		subjectivity += 1 - p.Score
	}
	n := float64(len(preds))
	return polarity / n, subjectivity / n, nil
}

func (a *Analyzer) classify(ctx context.Context, idx int, chunk string) (classify.Prediction, error) {
	var (
		pred    classify.Prediction
		lastErr error
	)
	for attempt := 0; attempt < classify.MaxRetries; attempt++ {
		pred, lastErr = a.classifier.Classify(ctx, chunk)
		if lastErr == nil || !classify.IsRetryable(lastErr) {
			break
		}
		a.log.Warn("retryable classifier error", "chunk", idx, "attempt", attempt, "error", lastErr)
		if attempt == classify.MaxRetries-1 {
			break
		}
		select {
		case <-time.After(a.backoff(attempt)):
		case <-ctx.Done():
			return classify.Prediction{}, ctx.Err()
		}
	}
	return pred, lastErr
}

// AnalyzeAll analyzes each article body in order. progress, when non-nil,
// is called after every article. The first failing article aborts the batch.
func (a *Analyzer) AnalyzeAll(ctx context.Context, arts []article.Article, progress func(done int)) ([]article.Analysis, error) {
	out := make([]article.Analysis, 0, len(arts))
	for i, art := range arts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := a.Analyze(ctx, art.Body)
		if err != nil {
			return nil, fmt.Errorf("analyze %q: %w", art.Title, err)
		}
		out = append(out, article.Analysis{
			Title:        art.Title,
			Text:         art.Body,
			Sentiment:    res.Sentiment,
			Polarity:     res.Polarity,
			Subjectivity: res.Subjectivity,
			Coherence:    res.Coherence,
			Topics:       res.Topics,
		})
		if progress != nil {
			progress(i + 1)
		}
	}
	return out, nil
}
