package api

import (
	"net/http"

	"github.com/vytor/chessdash/internal/logger"
	"github.com/vytor/chessdash/internal/models"
)

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req models.ComparePlayersRequest
	if err := decodeBody(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	tok, err := s.Dashboard.Compare(r.Context(), req.Player1, req.Player2)
	if err != nil {
		handleError(w, r, err)
		return
	}
	log.Debug("comparison requested: %s vs %s token=%d", req.Player1, req.Player2, tok)
	writeAccepted(w, r, tok)
}

func (s *Server) handleGetComparison(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.Dashboard.Comparison())
}
