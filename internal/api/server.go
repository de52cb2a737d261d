package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/dgallion1/bulletinlens/internal/analysis"
	"github.com/dgallion1/bulletinlens/internal/article"
	"github.com/dgallion1/bulletinlens/internal/classify"
	"github.com/dgallion1/bulletinlens/internal/config"
	"github.com/dgallion1/bulletinlens/internal/pipeline"
	"github.com/dgallion1/bulletinlens/internal/segment"
	"github.com/dgallion1/bulletinlens/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RunQueue accepts and tracks pipeline runs. *pipeline.Orchestrator
// satisfies it.
type RunQueue interface {
	Submit(run *pipeline.Run) error
	GetRun(id string) *pipeline.Run
	Runs() []pipeline.RunSnapshot
	QueueDepth() int
}

// Extractor segments one uploaded document. *pipeline.Runner satisfies it.
type Extractor interface {
	Extract(r io.Reader, filename string) ([]article.Article, error)
}

// AnalysisReader is the read side of the record store.
type AnalysisReader interface {
	Ping(ctx context.Context) error
	AnalysesBySentiment(ctx context.Context, sentiment string) ([]article.Analysis, error)
	SubjectivityDistribution(ctx context.Context) ([]float64, error)
	TitlesBySubjectivity(ctx context.Context, threshold float64, objective bool) ([]string, error)
	SentimentSubjectivity(ctx context.Context) ([]store.SentimentPoint, error)
}

// InsightSource produces article briefings. *analysis.Analyzer satisfies it.
type InsightSource interface {
	Insights(ctx context.Context, text string) (*analysis.Insight, error)
}

// Deps are the services the API fronts. Insights and Stats may be nil.
type Deps struct {
	Runs      RunQueue
	Extractor Extractor
	Store     AnalysisReader
	Insights  InsightSource
	Stats     *classify.Stats
}

// Server is the HTTP API server for bulletinlens.
type Server struct {
	router  chi.Router
	deps    Deps
	matcher *segment.Matcher
	log     *slog.Logger
	cfg     config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		deps:    deps,
		matcher: segment.NewMatcher(),
		log:     log,
		cfg:     cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/runs", s.handleCreateRun)
		r.Get("/api/runs", s.handleListRuns)
		r.Get("/api/runs/{runID}", s.handleRunStatus)

		r.Get("/api/report", s.handleReport)
		r.Get("/api/analyses", s.handleAnalyses)
		r.Get("/api/analyses/subjectivity", s.handleSubjectivity)

		r.Post("/api/segment", s.handleSegment)
		r.Post("/api/insights", s.handleInsights)

		r.Get("/api/stats/classifier", s.handleClassifierStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		if err := s.deps.Store.Ping(r.Context()); err != nil {
			jsonError(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
