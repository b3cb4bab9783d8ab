// Package server exposes laid-out workflows over HTTP for the browser canvas.
//
// Routes:
//
//	GET    /healthz
//	GET    /api/v1/workflow                      default document, positioned
//	POST   /api/v1/layout                        position the posted document
//	GET    /api/v1/workflows                     list stored documents
//	POST   /api/v1/workflows                     store a document
//	GET    /api/v1/workflows/{id}                stored document as saved
//	DELETE /api/v1/workflows/{id}
//	GET    /api/v1/workflows/{id}/layout         stored document, positioned
//	GET    /api/v1/workflows/{id}/render.{format} svg, dot, json, png or pdf
//
// Layout endpoints accept the query parameters strategy, center and
// center_x, which override the server's layout configuration per request.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/crewviz/pkg/layout"
	"github.com/matzehuels/crewviz/pkg/pipeline"
	"github.com/matzehuels/crewviz/pkg/source"
	"github.com/matzehuels/crewviz/pkg/store"
)

// Options configures a [Server].
type Options struct {
	Runner *pipeline.Runner
	Store  store.Store

	// Default is the document served by GET /api/v1/workflow.
	// Nil serves the empty graph.
	Default source.Source

	// Layout is the base engine configuration. Nil selects the defaults.
	Layout *layout.Config

	// RequestTimeout bounds each request. Zero means 30 seconds.
	RequestTimeout time.Duration

	Logger *log.Logger
}

// Server serves the HTTP API.
type Server struct {
	runner  *pipeline.Runner
	store   store.Store
	def     source.Source
	layout  layout.Config
	timeout time.Duration
	logger  *log.Logger
	router  chi.Router
}

// New builds a server and its routes.
func New(opts Options) *Server {
	s := &Server{
		runner:  opts.Runner,
		store:   opts.Store,
		def:     opts.Default,
		layout:  layout.DefaultConfig(),
		timeout: opts.RequestTimeout,
		logger:  opts.Logger,
	}
	if opts.Layout != nil {
		s.layout = opts.Layout.Clone()
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	if s.store == nil {
		s.store = store.NewMemoryStore()
	}
	if s.def == nil {
		s.def = source.Empty()
	}
	if s.timeout == 0 {
		s.timeout = 30 * time.Second
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/workflow", s.handleDefault)
		r.Post("/layout", s.handleLayout)

		r.Route("/workflows", func(r chi.Router) {
			r.Get("/", s.handleList)
			r.Post("/", s.handleCreate)

			r.Route("/{id}", func(r chi.Router) {
				r.Use(validID)
				r.Get("/", s.handleGet)
				r.Delete("/", s.handleDelete)
				r.Get("/layout", s.handleStoredLayout)
				r.Get("/render.{format}", s.handleRender)
			})
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
