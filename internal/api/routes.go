package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(Recoverer)
	r.Use(RequestLogger)
	r.Use(SecurityHeaders)
	r.Use(CORS)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.handleGetStats)
		r.Post("/stats", s.handleLoadStats)

		r.Get("/clusters", s.handleGetClusters)
		r.Post("/clusters", s.handleRunClustering)
		r.Post("/clusters/select", s.handleSelectPoint)
		r.Get("/clusters/selection", s.handleGetSelection)

		r.Get("/compare", s.handleGetComparison)
		r.Post("/compare", s.handleCompare)

		r.Get("/examples", s.handleExamples)
		r.Get("/top-players", s.handleTopPlayers)
		r.Get("/diagnostics", s.handleDiagnostics)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, errNotFound(r))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, errMethodNotAllowed(r))
	})
	return r
}
