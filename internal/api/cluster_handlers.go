package api

import (
	"net/http"

	"github.com/vytor/chessdash/internal/errors"
	"github.com/vytor/chessdash/internal/logger"
	"github.com/vytor/chessdash/internal/models"
)

func (s *Server) handleRunClustering(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	params := models.DefaultClusterQueryParams()
	if err := decodeBody(r, &params); err != nil {
		handleError(w, r, err)
		return
	}
	tok, err := s.Dashboard.RunClustering(r.Context(), params)
	if err != nil {
		handleError(w, r, err)
		return
	}
	log.Debug("clustering requested: num_clusters=%d x=%s y=%s token=%d", params.NumClusters, params.XAxis, params.YAxis, tok)
	writeAccepted(w, r, tok)
}

func (s *Server) handleGetClusters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.Dashboard.Clustering())
}

type selectPointRequest struct {
	Index *int `json:"index"`
}

func (s *Server) handleSelectPoint(w http.ResponseWriter, r *http.Request) {
	var req selectPointRequest
	if err := decodeBody(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Index == nil {
		handleError(w, r, errors.NewValidationError("index", "is required"))
		return
	}
	sel, err := s.Dashboard.SelectPoint(r.Context(), *req.Index)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sel)
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	sel, ok := s.Dashboard.Selection()
	if !ok {
		handleError(w, r, errors.NewNotFoundError("selection", "current"))
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"selection": sel,
		"detail":    s.Dashboard.Detail(),
	})
}
