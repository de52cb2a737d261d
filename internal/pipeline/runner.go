package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/bulletinlens/internal/analysis"
	"github.com/dgallion1/bulletinlens/internal/article"
	"github.com/dgallion1/bulletinlens/internal/clean"
	"github.com/dgallion1/bulletinlens/internal/parser"
	"github.com/dgallion1/bulletinlens/internal/segment"
	"github.com/dgallion1/bulletinlens/internal/topics"
)

// RecordStore is the persistence the runner writes through.
type RecordStore interface {
	// SaveArticles stores the articles not already present and reports how
	// many were new.
	SaveArticles(ctx context.Context, arts []article.Article) (int, error)
	UnanalyzedArticles(ctx context.Context) ([]article.Article, error)
	SaveAnalyses(ctx context.Context, analyses []article.Analysis) error
	AnalysesBySentiment(ctx context.Context, sentiment string) ([]article.Analysis, error)
}

// RunnerConfig holds the per-run settings.
type RunnerConfig struct {
	InputDir             string
	ReportPath           string
	TopN                 int
	Clean                clean.Options
	PDFFallbackPdftotext bool
}

// Runner executes the collect, clean, analyze and report stages in order.
// Each stage finishes before the next starts.
type Runner struct {
	store     RecordStore
	segmenter *segment.Segmenter
	analyzer  *analysis.Analyzer
	topics    *topics.Aggregator
	log       *slog.Logger
	cfg       RunnerConfig
}

func NewRunner(store RecordStore, segmenter *segment.Segmenter, analyzer *analysis.Analyzer, agg *topics.Aggregator, log *slog.Logger, cfg RunnerConfig) *Runner {
	if cfg.TopN <= 0 {
		cfg.TopN = topics.DefaultTopN
	}
	return &Runner{
		store:     store,
		segmenter: segmenter,
		analyzer:  analyzer,
		topics:    agg,
		log:       log,
		cfg:       cfg,
	}
}

// Run processes the input directory and writes the topic report. The run's
// status and counters are updated as stages complete; the returned error is
// also recorded on the run.
func (r *Runner) Run(ctx context.Context, run *Run) error {
	log := r.log.With("run_id", run.ID, "trigger", run.Trigger)
	start := time.Now()

	// Phase 1: Collect
	run.SetStatus(StatusCollecting, "collecting")
	collected, err := r.collect(ctx, run, log)
	if err != nil {
		log.Error("collect failed", "error", err)
		run.Fail("collecting", err)
		return err
	}

	// Phase 2: Clean and persist
	run.SetStatus(StatusCleaning, "cleaning")
	cleaned, err := clean.Clean(ctx, clean.Source{Articles: collected}, r.cfg.Clean, nil)
	if err != nil {
		log.Error("clean failed", "error", err)
		run.Fail("cleaning", err)
		return err
	}
	run.Update(func(p *Progress) {
		p.ArticlesKept = len(cleaned.Articles)
		p.DuplicatesRemoved = cleaned.ExactDupes + cleaned.SimilarTitles
	})
	log.Info("cleaned articles",
		"input", cleaned.Input,
		"kept", len(cleaned.Articles),
		"exact_duplicates", cleaned.ExactDupes,
		"similar_titles", cleaned.SimilarTitles,
	)

	stored, err := r.store.SaveArticles(ctx, cleaned.Articles)
	if err != nil {
		err = fmt.Errorf("save articles: %w", err)
		log.Error("persist failed", "error", err)
		run.Fail("cleaning", err)
		return err
	}
	log.Info("stored articles", "new", stored, "already_stored", len(cleaned.Articles)-stored)

	// Phase 3: Analyze
	run.SetStatus(StatusAnalyzing, "analyzing")
	pending, err := r.store.UnanalyzedArticles(ctx)
	if err != nil {
		err = fmt.Errorf("load unanalyzed articles: %w", err)
		log.Error("persist failed", "error", err)
		run.Fail("analyzing", err)
		return err
	}
	run.Update(func(p *Progress) { p.ToAnalyze = len(pending) })

	analyses, err := r.analyzer.AnalyzeAll(ctx, pending, func(done int) {
		run.Update(func(p *Progress) { p.Analyzed = done })
	})
	if err != nil {
		log.Error("analysis failed", "error", err)
		run.Fail("analyzing", err)
		return err
	}
	if err := r.store.SaveAnalyses(ctx, analyses); err != nil {
		err = fmt.Errorf("save analyses: %w", err)
		log.Error("persist failed", "error", err)
		run.Fail("analyzing", err)
		return err
	}
	log.Info("analysis complete", "analyzed", len(analyses))

	// Phase 4: Report
	run.SetStatus(StatusReporting, "reporting")
	negative, err := r.store.AnalysesBySentiment(ctx, article.Negative)
	if err != nil {
		err = fmt.Errorf("load negative analyses: %w", err)
		log.Error("persist failed", "error", err)
		run.Fail("reporting", err)
		return err
	}
	rows, err := r.topics.Report(negative, r.cfg.TopN)
	if err != nil {
		err = fmt.Errorf("aggregate topics: %w", err)
		log.Error("report failed", "error", err)
		run.Fail("reporting", err)
		return err
	}
	if err := writeReport(r.cfg.ReportPath, rows); err != nil {
		log.Error("report failed", "error", err)
		run.Fail("reporting", err)
		return err
	}
	run.Update(func(p *Progress) {
		p.Negative = len(negative)
		p.Topics = len(rows)
	})
	run.SetReportPath(r.cfg.ReportPath)
	log.Info("report written",
		"path", r.cfg.ReportPath,
		"negative", len(negative),
		"topics", len(rows),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	run.SetStatus(StatusCompleted, "done")
	return nil
}

// collect parses and segments every supported file in the input directory,
// in file name order. A file that fails to parse is recorded on the run and
// skipped.
func (r *Runner) collect(ctx context.Context, run *Run, log *slog.Logger) ([]article.Article, error) {
	files, err := InputFiles(r.cfg.InputDir)
	if err != nil {
		return nil, err
	}
	run.Update(func(p *Progress) { p.Files = len(files) })

	collected := make([]article.Article, 0)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		arts, err := r.extractFile(path)
		if err != nil {
			log.Warn("skipping file", "file", path, "error", err)
			run.AddError(fmt.Sprintf("%s: %s", filepath.Base(path), err))
			continue
		}
		log.Debug("segmented file", "file", path, "articles", len(arts))
		collected = append(collected, arts...)
		run.Update(func(p *Progress) { p.ArticlesFound += len(arts) })
	}
	log.Info("collected articles", "files", len(files), "articles", len(collected))
	return collected, nil
}

func (r *Runner) extractFile(path string) ([]article.Article, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return r.Extract(f, filepath.Base(path))
}

// Extract parses one document and segments it into articles.
func (r *Runner) Extract(rd io.Reader, filename string) ([]article.Article, error) {
	p, err := parser.ForFile(filename)
	if err != nil {
		return nil, err
	}
	if pdf, ok := p.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = r.cfg.PDFFallbackPdftotext
	}
	src, err := p.Parse(rd, filename)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return r.segmenter.FromSource(src), nil
}

// InputFiles lists the supported files directly under dir, sorted by name.
// A missing directory holds no files.
func InputFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !parser.IsSupportedExtension(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// writeReport replaces the report file atomically.
func writeReport(path string, rows []article.ReportRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.csv")
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := topics.WriteCSV(tmp, rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename report: %w", err)
	}
	return nil
}
