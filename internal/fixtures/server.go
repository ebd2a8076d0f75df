// Package fixtures serves stored chess statistics over the same HTTP
// contract as the stats service, so the dashboard can run offline.
package fixtures

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/chessdash/internal/api"
	"github.com/vytor/chessdash/internal/logger"
	"github.com/vytor/chessdash/internal/models"
	"github.com/vytor/chessdash/internal/repository"
)

const maxBodyBytes = 1 << 20

type Server struct {
	Players      repository.PlayerRepository
	Payloads     repository.PayloadRepository
	ExampleCount int
	TopMinGames  int
}

// Routes mirrors the stats service endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(api.Recoverer)
	r.Use(api.RequestLogger)
	r.Use(api.CORS)

	r.Get("/chess_stats", s.handleChessStats)
	r.Get("/example_usernames", s.handleExampleUsernames)
	r.Get("/top_players", s.handleTopPlayers)
	r.Post("/api/kmeans", s.handleKMeans)
	r.Post("/compare_players", s.handleComparePlayers)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found.")
	})
	return r
}

func (s *Server) handleChessStats(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "Username parameter is required")
		return
	}
	stats, err := s.Players.Get(r.Context(), username)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if stats == nil {
		writeError(w, http.StatusNotFound, "Statistics not found for the given username.")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleExampleUsernames(w http.ResponseWriter, r *http.Request) {
	n := s.ExampleCount
	if n <= 0 {
		n = 5
	}
	names, err := s.Players.MostActive(r.Context(), n)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if len(names) == 0 {
		writeError(w, http.StatusNotFound, "Example usernames not found.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"examples": names})
}

func (s *Server) handleTopPlayers(w http.ResponseWriter, r *http.Request) {
	minGames := s.TopMinGames
	if minGames <= 0 {
		minGames = 50
	}
	players, err := s.Players.WithMinGames(r.Context(), minGames)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if len(players) == 0 {
		writeError(w, http.StatusNotFound, "Top players not found.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"top_players": players})
}

type kmeansRequest struct {
	NumClusters     *int    `json:"num_clusters"`
	XAxis           *string `json:"x_axis"`
	YAxis           *string `json:"y_axis"`
	ReductionMethod *string `json:"reduction_method"`
	PlotType        *string `json:"plot_type"`
	FeatureSet      *string `json:"feature_set"`
}

// params applies the service defaults, which start at three clusters.
func (k kmeansRequest) params() models.ClusterQueryParams {
	p := models.ClusterQueryParams{NumClusters: 3}
	if k.NumClusters != nil {
		p.NumClusters = *k.NumClusters
	}
	if k.XAxis != nil {
		p.XAxis = models.Axis(*k.XAxis)
	}
	if k.YAxis != nil {
		p.YAxis = models.Axis(*k.YAxis)
	}
	if k.ReductionMethod != nil {
		p.ReductionMethod = *k.ReductionMethod
	}
	if k.PlotType != nil {
		p.PlotType = *k.PlotType
	}
	if k.FeatureSet != nil {
		p.FeatureSet = models.FeatureSet(*k.FeatureSet)
	}
	return p.WithDefaults()
}

func (s *Server) handleKMeans(w http.ResponseWriter, r *http.Request) {
	var req kmeansRequest
	if !decodeJSONObject(w, r, &req) {
		return
	}
	key := KMeansKey(req.params())
	body, err := s.Payloads.Get(r.Context(), repository.PayloadKMeans, key)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if body == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No clustering result stored for %s.", key))
		return
	}
	writeRaw(w, http.StatusOK, body)
}

func (s *Server) handleComparePlayers(w http.ResponseWriter, r *http.Request) {
	var req map[string]any
	if !decodeJSONObject(w, r, &req) {
		return
	}
	p1, ok1 := req["player1"].(string)
	p2, ok2 := req["player2"].(string)
	if !ok1 || !ok2 {
		writeError(w, http.StatusBadRequest, "Missing required fields: ['player1', 'player2']")
		return
	}

	body, err := s.Payloads.Get(r.Context(), repository.PayloadCompare, CompareKey(p1, p2))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if body == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No comparison stored for %s and %s.", p1, p2))
		return
	}
	writeRaw(w, http.StatusOK, body)
}

// decodeJSONObject answers 415 unless the body is a non-empty JSON object.
func decodeJSONObject(w http.ResponseWriter, r *http.Request, v any) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
			writeError(w, http.StatusUnsupportedMediaType, "Request body must be JSON.")
			return false
		}
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read request body.")
		return false
	}
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "{") || trimmed == "{}" {
		writeError(w, http.StatusUnsupportedMediaType, "Request body must be JSON.")
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return false
	}
	return true
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).WithPrefix("fixtures").Error("%s %s failed: %v", r.Method, r.URL.Path, err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
