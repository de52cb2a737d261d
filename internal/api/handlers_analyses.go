package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/dgallion1/bulletinlens/internal/article"
	"github.com/dgallion1/bulletinlens/internal/store"
)

func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	sentiment := strings.ToLower(r.URL.Query().Get("sentiment"))
	switch sentiment {
	case article.Positive, article.Neutral, article.Negative:
	case "":
		jsonError(w, "sentiment query parameter is required", http.StatusBadRequest)
		return
	default:
		jsonError(w, "sentiment must be positive, neutral or negative", http.StatusBadRequest)
		return
	}

	analyses, err := s.deps.Store.AnalysesBySentiment(r.Context(), sentiment)
	if err != nil {
		s.log.Error("query analyses failed", "error", err)
		jsonError(w, "failed to query analyses", http.StatusInternalServerError)
		return
	}
	if analyses == nil {
		analyses = []article.Analysis{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"sentiment": sentiment,
		"analyses":  analyses,
	})
}

// handleSubjectivity splits stored analyses into objective and subjective
// titles around a threshold and returns the raw score distribution.
func (s *Server) handleSubjectivity(w http.ResponseWriter, r *http.Request) {
	threshold := store.DefaultSubjectivityThreshold
	if v := r.URL.Query().Get("threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			jsonError(w, "threshold must be a number within 0..1", http.StatusBadRequest)
			return
		}
		threshold = f
	}

	ctx := r.Context()
	objective, err := s.deps.Store.TitlesBySubjectivity(ctx, threshold, true)
	if err != nil {
		s.log.Error("query objective titles failed", "error", err)
		jsonError(w, "failed to query analyses", http.StatusInternalServerError)
		return
	}
	subjective, err := s.deps.Store.TitlesBySubjectivity(ctx, threshold, false)
	if err != nil {
		s.log.Error("query subjective titles failed", "error", err)
		jsonError(w, "failed to query analyses", http.StatusInternalServerError)
		return
	}
	distribution, err := s.deps.Store.SubjectivityDistribution(ctx)
	if err != nil {
		s.log.Error("query subjectivity distribution failed", "error", err)
		jsonError(w, "failed to query analyses", http.StatusInternalServerError)
		return
	}
	points, err := s.deps.Store.SentimentSubjectivity(ctx)
	if err != nil {
		s.log.Error("query sentiment points failed", "error", err)
		jsonError(w, "failed to query analyses", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"threshold":    threshold,
		"objective":    nonNil(objective),
		"subjective":   nonNil(subjective),
		"distribution": nonNil(distribution),
		"points":       nonNil(points),
	})
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if s.deps.Insights == nil {
		jsonError(w, "insights unavailable", http.StatusServiceUnavailable)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}

	ins, err := s.deps.Insights.Insights(r.Context(), req.Text)
	if err != nil {
		s.log.Error("insights failed", "error", err)
		jsonError(w, "insights failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ins)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
