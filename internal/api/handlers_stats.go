package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleClassifierStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Stats == nil {
		jsonError(w, "classifier stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"model": s.cfg.SentimentModel,
		"stats": s.deps.Stats.Snapshot(),
	})
}
