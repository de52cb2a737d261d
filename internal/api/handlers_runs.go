package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/bulletinlens/internal/article"
	"github.com/dgallion1/bulletinlens/internal/parser"
	"github.com/dgallion1/bulletinlens/internal/pipeline"
	"github.com/dgallion1/bulletinlens/internal/segment"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	run := pipeline.NewRun(pipeline.TriggerAPI)
	if err := s.deps.Runs.Submit(run); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"run_id":   run.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/runs/%s", run.ID),
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"runs":        s.deps.Runs.Runs(),
		"queue_depth": s.deps.Runs.QueueDepth(),
	})
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	run := s.deps.Runs.GetRun(runID)
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run.Snapshot())
}

// handleReport serves the last written topic report.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(s.cfg.ReportPath())
	if errors.Is(err, os.ErrNotExist) {
		jsonError(w, "no report yet", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to open report", http.StatusInternalServerError)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		jsonError(w, "failed to stat report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(f.Name())))
	http.ServeContent(w, r, f.Name(), info.ModTime(), f)
}

// handleSegment parses an uploaded bulletin and returns its articles
// without persisting them.
func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}
	if header.Size > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	arts, err := s.deps.Extractor.Extract(file, filename)
	if err != nil {
		jsonError(w, "extract failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	out := make([]segmentedArticle, len(arts))
	for i, a := range arts {
		out[i].Article = a
		if h, ok := s.matcher.Parse(a.Title); ok {
			out[i].Heading = &h
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"filename": filename,
		"count":    len(arts),
		"articles": out,
	})
}

// segmentedArticle is an extracted article with its title split into
// heading fields when the title follows the bulletin grammar.
type segmentedArticle struct {
	article.Article
	Heading *segment.Heading `json:"heading,omitempty"`
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
