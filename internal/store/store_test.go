package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/dgallion1/bulletinlens/internal/article"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	st, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "articles.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x")
	if !errors.Is(err, ErrUnsupportedDriver) {
		t.Fatalf("expected ErrUnsupportedDriver, got %v", err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.sqlite")
	ctx := context.Background()
	for n := 0; n < 2; n++ {
		st, err := OpenSQLite(ctx, path)
		if err != nil {
			t.Fatalf("OpenSQLite: %v", err)
		}
		if st.Driver() != DriverSQLite {
			t.Errorf("expected driver %q, got %q", DriverSQLite, st.Driver())
		}
		st.Close()
	}
}

func TestArticlesRoundTrip(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	arts := []article.Article{{Title: "A", Body: "alpha"}, {Title: "B", Body: "beta"}}
	if n, err := st.SaveArticles(ctx, arts); err != nil || n != 2 {
		t.Fatalf("SaveArticles: expected 2 inserted, got %d (%v)", n, err)
	}
	if n, err := st.SaveArticles(ctx, nil); err != nil || n != 0 {
		t.Fatalf("SaveArticles(nil): expected 0 inserted, got %d (%v)", n, err)
	}

	got, err := st.Articles(ctx)
	if err != nil {
		t.Fatalf("Articles: %v", err)
	}
	if len(got) != 2 || got[0] != arts[0] || got[1] != arts[1] {
		t.Errorf("expected %v, got %v", arts, got)
	}

	if err := st.ReplaceArticles(ctx, []article.Article{{Title: "C", Body: "gamma"}}); err != nil {
		t.Fatalf("ReplaceArticles: %v", err)
	}
	n, err := st.ArticleCount(ctx)
	if err != nil {
		t.Fatalf("ArticleCount: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 article after replace, got %d", n)
	}
}

func TestSaveArticlesBatches(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	arts := make([]article.Article, insertBatch+7)
	for i := range arts {
		arts[i] = article.Article{Title: fmt.Sprintf("t%d", i), Body: "b"}
	}
	if _, err := st.SaveArticles(ctx, arts); err != nil {
		t.Fatalf("SaveArticles: %v", err)
	}
	if n, _ := st.ArticleCount(ctx); n != len(arts) {
		t.Errorf("expected %d articles, got %d", len(arts), n)
	}
}

func TestSaveArticlesSkipsStored(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	first := []article.Article{{Title: "A", Body: "alpha"}, {Title: "B", Body: "beta"}}
	if _, err := st.SaveArticles(ctx, first); err != nil {
		t.Fatalf("SaveArticles: %v", err)
	}

	again := []article.Article{
		{Title: "A", Body: "alpha"},
		{Title: "A", Body: "alpha, revised"},
		{Title: "C", Body: "gamma"},
		{Title: "C", Body: "gamma"},
	}
	n, err := st.SaveArticles(ctx, again)
	if err != nil {
		t.Fatalf("SaveArticles: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 inserted, got %d", n)
	}
	if count, _ := st.ArticleCount(ctx); count != 4 {
		t.Errorf("expected 4 articles, got %d", count)
	}

	got, err := st.Articles(ctx)
	if err != nil {
		t.Fatalf("Articles: %v", err)
	}
	if got[2].Body != "alpha, revised" || got[3].Title != "C" {
		t.Errorf("unexpected stored order %v", got)
	}
}

func TestUnanalyzedArticlesDistinct(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	// ReplaceArticles writes rows as given, so repeated rows can exist.
	err := st.ReplaceArticles(ctx, []article.Article{
		{Title: "A", Body: "alpha"},
		{Title: "B", Body: "beta"},
		{Title: "A", Body: "alpha"},
	})
	if err != nil {
		t.Fatalf("ReplaceArticles: %v", err)
	}

	got, err := st.UnanalyzedArticles(ctx)
	if err != nil {
		t.Fatalf("UnanalyzedArticles: %v", err)
	}
	if len(got) != 2 || got[0].Title != "A" || got[1].Title != "B" {
		t.Errorf("expected A then B, got %v", got)
	}
}

func TestUnanalyzedArticles(t *testing.T) {
	st := openTest(t)
	ctx := context.Background()

	st.SaveArticles(ctx, []article.Article{{Title: "A", Body: "alpha"}, {Title: "B", Body: "beta"}})
	st.SaveAnalyses(ctx, []article.Analysis{{Title: "A", Text: "alpha", Sentiment: article.Positive}})

	got, err := st.UnanalyzedArticles(ctx)
	if err != nil {
		t.Fatalf("UnanalyzedArticles: %v", err)
	}
	if len(got) != 1 || got[0].Title != "B" {
		t.Errorf("expected only B, got %v", got)
	}
}

func seedAnalyses(t *testing.T, st *Store) {
	t.Helper()
	err := st.SaveAnalyses(context.Background(), []article.Analysis{
		{Title: "A", Text: "a", Sentiment: article.Negative, Polarity: -0.5, Subjectivity: 0.1, Coherence: 0.4, Topics: "crisis"},
		{Title: "B", Text: "b", Sentiment: article.Positive, Polarity: 0.3, Subjectivity: 0.5, Coherence: 1},
		{Title: "C", Text: "c", Sentiment: article.Negative, Polarity: -0.2, Subjectivity: 0.8, Coherence: 0.7, Topics: "fraud, crisis"},
	})
	if err != nil {
		t.Fatalf("SaveAnalyses: %v", err)
	}
}

func TestAnalysesBySentiment(t *testing.T) {
	st := openTest(t)
	seedAnalyses(t, st)

	got, err := st.AnalysesBySentiment(context.Background(), article.Negative)
	if err != nil {
		t.Fatalf("AnalysesBySentiment: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 negative analyses, got %d", len(got))
	}
	if got[0].Title != "A" || got[0].Text != "a" || got[0].Topics != "crisis" {
		t.Errorf("unexpected first row %+v", got[0])
	}
	if got[1].Topics != "fraud, crisis" {
		t.Errorf("unexpected topics %q", got[1].Topics)
	}

	none, err := st.AnalysesBySentiment(context.Background(), article.Neutral)
	if err != nil {
		t.Fatalf("AnalysesBySentiment: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no neutral rows, got %d", len(none))
	}
}

func TestSubjectivityQueries(t *testing.T) {
	st := openTest(t)
	seedAnalyses(t, st)
	ctx := context.Background()

	dist, err := st.SubjectivityDistribution(ctx)
	if err != nil {
		t.Fatalf("SubjectivityDistribution: %v", err)
	}
	if len(dist) != 3 || dist[2] != 0.8 {
		t.Errorf("unexpected distribution %v", dist)
	}

	objective, err := st.TitlesBySubjectivity(ctx, DefaultSubjectivityThreshold, true)
	if err != nil {
		t.Fatalf("TitlesBySubjectivity: %v", err)
	}
	if len(objective) != 1 || objective[0] != "A" {
		t.Errorf("expected objective [A], got %v", objective)
	}

	subjective, err := st.TitlesBySubjectivity(ctx, DefaultSubjectivityThreshold, false)
	if err != nil {
		t.Fatalf("TitlesBySubjectivity: %v", err)
	}
	if len(subjective) != 2 || subjective[0] != "B" || subjective[1] != "C" {
		t.Errorf("expected subjective [B C], got %v", subjective)
	}

	points, err := st.SentimentSubjectivity(ctx)
	if err != nil {
		t.Fatalf("SentimentSubjectivity: %v", err)
	}
	if len(points) != 3 || points[1] != (SentimentPoint{Sentiment: article.Positive, Subjectivity: 0.5}) {
		t.Errorf("unexpected points %v", points)
	}

	if n, _ := st.AnalysisCount(ctx); n != 3 {
		t.Errorf("expected 3 analyses, got %d", n)
	}
}
