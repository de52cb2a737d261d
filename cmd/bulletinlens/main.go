package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/bulletinlens/internal/analysis"
	"github.com/dgallion1/bulletinlens/internal/api"
	"github.com/dgallion1/bulletinlens/internal/classify"
	"github.com/dgallion1/bulletinlens/internal/clean"
	"github.com/dgallion1/bulletinlens/internal/config"
	"github.com/dgallion1/bulletinlens/internal/logging"
	"github.com/dgallion1/bulletinlens/internal/pipeline"
	"github.com/dgallion1/bulletinlens/internal/segment"
	"github.com/dgallion1/bulletinlens/internal/store"
	"github.com/dgallion1/bulletinlens/internal/topics"
)

func main() {
	var (
		serve   = flag.Bool("serve", false, "Run the HTTP API and the run schedule instead of a single batch")
		cleanDB = flag.Bool("clean-db", false, "Re-clean the stored article set and exit")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("load configuration", "error", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *cleanDB {
		if err := recleanStore(ctx, cfg, log); err != nil {
			log.Error("clean failed", "error", err)
			os.Exit(1)
		}
		return
	}

	st, err := store.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Error("open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	log.Info("record store open", "driver", st.Driver())

	lexicon, err := analysis.OpenVaderLexicon(cfg.LexiconPath)
	if err != nil {
		log.Error("load lexicon", "error", err)
		os.Exit(1)
	}
	log.Info("lexicon loaded", "path", cfg.LexiconPath, "words", lexicon.Len())

	// Initialize model clients.
	client := classify.NewClient(cfg.InferenceURL, cfg.InferenceToken, cfg.ClassifierTimeout)
	defer client.Close()

	var cache classify.Cache = classify.NewMemoryCache(cfg.MemoryCacheCap)
	if cfg.RedisAddr != "" {
		rc, err := classify.NewRedisCache(ctx, cfg.RedisAddr, cfg.CacheTTL)
		if err != nil {
			log.Warn("redis unavailable, using memory cache", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer rc.Close()
			cache = rc
		}
	}
	classifier := classify.NewCachedClassifier(classify.NewHTTPClassifier(client, cfg.SentimentModel), cache, log)

	analyzer := analysis.New(
		classifier,
		lexicon,
		classify.NewHTTPSummarizer(client, cfg.SummaryModel),
		classify.NewHTTPEntityExtractor(client, cfg.EntityModel),
		log,
		analysis.Options{
			ChunkSize:     cfg.ChunkSize,
			MaxConcurrent: cfg.MaxConcurrentClassify,
			Facilities:    cfg.Facilities,
			KeyPhrases:    cfg.KeyPhrases,
		},
	)

	runner := pipeline.NewRunner(
		st,
		segment.New(segment.DefaultHeadingLevel),
		analyzer,
		topics.NewAggregator(topics.ProseTagger{}, cfg.ExcludedTopics, cfg.RelevantTags),
		log,
		pipeline.RunnerConfig{
			InputDir:             cfg.InputDir,
			ReportPath:           cfg.ReportPath(),
			TopN:                 cfg.TopN,
			Clean:                clean.Options{Threshold: cfg.DedupeThreshold, StripPunctuation: cfg.StripPunctuation},
			PDFFallbackPdftotext: cfg.PDFFallbackPdftotext,
		},
	)

	if !*serve {
		run := pipeline.NewRun(pipeline.TriggerManual)
		if err := runner.Run(ctx, run); err != nil {
			os.Exit(1)
		}
		return
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(runner, log, pipeline.OrchestratorConfig{
		MaxQueueSize: cfg.MaxQueueSize,
		RunTTL:       cfg.RunTTL,
		CronSchedule: cfg.CronSchedule,
	})
	if err := orch.Start(ctx); err != nil {
		log.Error("start pipeline", "error", err)
		os.Exit(1)
	}

	// Initialize HTTP server.
	srv := api.NewServer(api.Deps{
		Runs:      orch,
		Extractor: runner,
		Store:     st,
		Insights:  analyzer,
		Stats:     client.Stats,
	}, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
	}()

	log.Info("starting bulletinlens", "port", cfg.Port, "input_dir", cfg.InputDir)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-stopped
}

// recleanStore rewrites the stored article set without exact duplicates or
// near-identical titles.
func recleanStore(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	open := func(ctx context.Context, dsn string) (clean.Store, error) {
		return store.Open(ctx, cfg.DBDriver, dsn)
	}
	res, err := clean.Clean(ctx, clean.Source{StorePath: cfg.DBDSN}, clean.Options{
		Threshold:        cfg.DedupeThreshold,
		StripPunctuation: cfg.StripPunctuation,
	}, open)
	if err != nil {
		return err
	}
	log.Info("store cleaned",
		"input", res.Input,
		"kept", len(res.Articles),
		"exact_duplicates", res.ExactDupes,
		"similar_titles", res.SimilarTitles,
	)
	return nil
}
