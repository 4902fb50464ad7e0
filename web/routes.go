/* routes.go
 * Contains the router. Public routes read league data and accept results, admin routes require the X-Admin-Key header
 */

package web

import (
	"net/http"

	"hdc-league/api/api"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// AdminKeyHeader carries the admin secret on admin routes
const AdminKeyHeader = "X-Admin-Key"

func NewServer(apiPtr *api.API, logger zerolog.Logger) *Server {
	return &Server{
		api:    apiPtr,
		logger: logger.With().Str("component", "web").Logger(),
	}
}

// Router builds the route table without CORS handling
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.requestContext)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, MessageResponse{Message: "OK"})
	}).Methods(http.MethodGet)

	// full paths on the root router so a method mismatch answers 405
	router.HandleFunc("/api/ingest", s.IngestSeries).Methods(http.MethodPost)
	router.HandleFunc("/api/upload", s.IngestUpload).Methods(http.MethodPost)
	router.HandleFunc("/api/submissions", s.SubmitResult).Methods(http.MethodPost)

	router.HandleFunc("/api/teams", s.GetTeams).Methods(http.MethodGet)
	router.HandleFunc("/api/standings/{division:[0-9]+}", s.GetStandings).Methods(http.MethodGet)
	router.HandleFunc("/api/leaderboard/{division:[0-9]+}", s.GetLeaderboard).Methods(http.MethodGet)
	router.HandleFunc("/api/matches/{id}", s.GetMatch).Methods(http.MethodGet)
	router.HandleFunc("/api/disputes", s.GetDisputes).Methods(http.MethodGet)

	// admin
	router.HandleFunc("/api/admin/submissions/{id}/approve", s.ApproveSubmission).Methods(http.MethodPost)
	router.HandleFunc("/api/admin/submissions/{id}", s.DeleteSubmission).Methods(http.MethodDelete)
	router.HandleFunc("/api/admin/matches", s.AddMatch).Methods(http.MethodPost)
	router.HandleFunc("/api/admin/matches/{id}", s.DeleteMatch).Methods(http.MethodDelete)

	return router
}

// Handler wraps the router with CORS for the given origins
func (s *Server) Handler(origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", AdminKeyHeader, RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
	})
	return c.Handler(s.Router())
}
