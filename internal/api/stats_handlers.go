package api

import (
	"net/http"

	"github.com/vytor/chessdash/internal/logger"
	"github.com/vytor/chessdash/internal/query"
)

type loadStatsRequest struct {
	Username string `json:"username"`
}

func (s *Server) handleLoadStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req loadStatsRequest
	if err := decodeBody(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	tok, err := s.Dashboard.LoadPlayerStats(r.Context(), req.Username)
	if err != nil {
		handleError(w, r, err)
		return
	}
	log.Debug("player stats requested: username=%s token=%d", req.Username, tok)
	writeAccepted(w, r, tok)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.Dashboard.Stats())
}

// handleExamples loads the example usernames on first use.
func (s *Server) handleExamples(w http.ResponseWriter, r *http.Request) {
	if s.Dashboard.Examples().Status == query.StatusIdle || r.URL.Query().Get("refresh") == "true" {
		s.Dashboard.LoadExamples(r.Context())
	}
	writeJSON(w, r, http.StatusOK, s.Dashboard.Examples())
}

func (s *Server) handleTopPlayers(w http.ResponseWriter, r *http.Request) {
	if s.Dashboard.TopPlayers().Status == query.StatusIdle || r.URL.Query().Get("refresh") == "true" {
		s.Dashboard.LoadTopPlayers(r.Context())
	}
	writeJSON(w, r, http.StatusOK, s.Dashboard.TopPlayers())
}
