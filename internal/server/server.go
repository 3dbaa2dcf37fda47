package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/liftlog/internal/session"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	manager *session.Manager
	log     *slog.Logger
	apiKey  string
	router  chi.Router
}

// New creates a new Server with all routes configured.
func New(manager *session.Manager, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		manager: manager,
		log:     log,
		apiKey:  apiKey,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Read-only endpoints
		r.Get("/session", s.handleGetSession)
		r.Get("/history", s.handleHistory)

		// Session lifecycle and edits (API key required)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/session/start", s.handleStart)
			r.Delete("/session", s.handleEnd)
			r.Post("/session/complete", s.handleComplete)
			r.Put("/session/name", s.handleRename)
			r.Post("/session/timer/toggle", s.handleToggleTimer)
			r.Put("/session/rest-timer", s.handleSetRestTimer)
			r.Post("/session/exercises", s.handleAddExercise)
			r.Put("/session/exercises/order", s.handleReorderExercises)
			r.Put("/session/exercises/current", s.handleSetCurrentExercise)
			r.Delete("/session/exercises/{index}", s.handleDeleteExercise)
			r.Post("/session/exercises/{index}/sets", s.handleAddSet)
			r.Put("/session/exercises/{index}/sets/{set}", s.handleUpdateSet)
			r.Delete("/session/exercises/{index}/sets/{set}", s.handleRemoveSet)
			r.Post("/session/exercises/{index}/sets/{set}/complete", s.handleCompleteSet)
			r.Post("/session/superset", s.handleCreateSuperset)
		})
	})
}
