package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/claude/gainz/internal/ingest/alpha"
	"github.com/claude/gainz/internal/storage"
	"github.com/claude/gainz/internal/workout"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ImportLogs lists recorded import runs.
type ImportLogs interface {
	QueryImportLogs(ctx context.Context, limit int) ([]storage.ImportLog, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc    *workout.Service
	alpha  *alpha.Provider
	logs   ImportLogs
	log    *slog.Logger
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(svc *workout.Service, alphaProvider *alpha.Provider, logs ImportLogs, log *slog.Logger) *Server {
	s := &Server{
		svc:    svc,
		alpha:  alphaProvider,
		logs:   logs,
		log:    log,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleStartSession)
			r.Get("/active", s.handleActiveSession)
			r.Get("/{id}", s.handleGetSession)
			r.Post("/{id}/end", s.handleEndSession)
			r.Post("/{id}/exercises", s.handleAddExercise)
			r.Post("/{id}/exercises/move", s.handleMoveExercise)
		})

		r.Get("/exercises/{id}", s.handleGetExercise)
		r.Delete("/exercises/{id}", s.handleRemoveExercise)
		r.Post("/exercises/{id}/sets", s.handleAddSet)
		r.Post("/exercises/{id}/sets/move", s.handleMoveSet)
		r.Delete("/sets/{id}", s.handleRemoveSet)

		r.Post("/import/alpha", s.handleAlphaImport)
		r.Get("/import/logs", s.handleImportLogs)
	})
}
