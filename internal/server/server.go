// Package server exposes the decomposition tree over HTTP.
//
// The server is started against one CSV table and configuration. Stateless
// endpoints serve the complete tree and its exports; stateful endpoints give
// each viewer a session whose expansion, sort, and manual order are driven
// by the same reducer events the other surfaces use.
package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/decomptree/pkg/config"
	"github.com/matzehuels/decomptree/pkg/pipeline"
	"github.com/matzehuels/decomptree/pkg/session"
)

// Server wires the pipeline runner and session store behind an HTTP router.
type Server struct {
	cfg      config.Config
	csvPath  string
	runner   *pipeline.Runner
	sessions session.Store
	logger   *log.Logger
}

// New creates a server for one table. A nil session store gets an in-memory
// store.
func New(cfg config.Config, csvPath string, runner *pipeline.Runner, sessions session.Store, logger *log.Logger) *Server {
	if sessions == nil {
		sessions = session.NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		cfg:      cfg,
		csvPath:  csvPath,
		runner:   runner,
		sessions: sessions,
		logger:   logger,
	}
}

// Routes builds the chi router with all endpoints registered.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/tree", s.handleTree)
		r.Get("/table.csv", s.handleTableCSV)
		r.Get("/export/{format}", s.handleExport)
		r.Get("/node/rows.csv", s.handleNodeRows)
		r.Get("/node/subtree.json", s.handleNodeSubtree)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/{id}", s.handleGetSession)
			r.Delete("/{id}", s.handleDeleteSession)
			r.Post("/{id}/events", s.handleSessionEvent)
			r.Get("/{id}/export/{format}", s.handleSessionExport)
		})
	})

	return r
}

// logRequests logs each request with method, path, status, and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Microsecond))
	})
}
