package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lazypower/notekeeper/internal/merge"
	"github.com/lazypower/notekeeper/internal/regen"
	"github.com/lazypower/notekeeper/internal/store"
)

// Server is the notekeeper HTTP API server.
type Server struct {
	db      *store.DB
	regen   *regen.Regenerator
	folder  string
	options merge.Options
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server. rg may be nil, in which case only previews and
// read-only routes are available.
func New(db *store.DB, rg *regen.Regenerator, version string) *Server {
	s := &Server{
		db:      db,
		regen:   rg,
		options: merge.DefaultOptions(),
		version: version,
		started: time.Now(),
	}
	if rg != nil {
		s.folder = rg.Folder
		s.options = rg.Options
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/preview", s.handlePreview)

		r.Get("/notes", s.handleListNotes)
		r.Post("/notes/regenerate", s.handleRegenerate)

		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{runID}", s.handleGetRun)
		r.Get("/runs/{runID}/snapshot", s.handleGetSnapshot)
		r.Post("/runs/{runID}/restore", s.handleRestore)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
		"regen":   s.regen != nil,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
