// Package server exposes diagrams over HTTP.
//
// Each diagram lives in memory under a random id. Every request that touches
// a diagram runs as a task on one [schedule.Loop], and the diagrams post
// their redraw passes to the same loop, so a graph is only ever used from
// the loop goroutine.
//
// Routes:
//
//	GET    /healthz
//	GET    /diagrams
//	POST   /diagrams                           create, optionally from a JSON document
//	GET    /diagrams/{id}                      snapshot as a JSON document
//	DELETE /diagrams/{id}
//	POST   /diagrams/{id}/items                add an item ({"kind": "node", ...})
//	GET    /diagrams/{id}/items/{item}
//	PATCH  /diagrams/{id}/items/{item}
//	DELETE /diagrams/{id}/items/{item}
//	POST   /diagrams/{id}/items/{item}/show
//	POST   /diagrams/{id}/items/{item}/hide
//	POST   /diagrams/{id}/paint
//	GET    /diagrams/{id}/svg
//	POST   /diagrams/{id}/save                 write a snapshot to the store
//	POST   /diagrams/{id}/load                 replace items with the stored snapshot
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/linkgraph/pkg/diagram"
	"github.com/matzehuels/linkgraph/pkg/observability"
	"github.com/matzehuels/linkgraph/pkg/schedule"
	"github.com/matzehuels/linkgraph/pkg/store"
)

// Options configures a Server. Zero values select the defaults.
type Options struct {
	Store          store.Store
	Keyer          store.Keyer
	Logger         *log.Logger
	GraphOptions   []diagram.Option
	SnapshotTTL    time.Duration
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// Server holds the live diagrams and serves the HTTP API.
type Server struct {
	loop     *schedule.Loop
	router   chi.Router
	store    store.Store
	keyer    store.Keyer
	logger   *log.Logger
	graphOpt []diagram.Option
	ttl      time.Duration
	timeout  time.Duration
	maxBody  int64

	// Owned by the loop goroutine.
	diagrams map[string]*entry
}

type entry struct {
	graph   *diagram.Graph
	title   string
	created time.Time
}

// New creates a server with its own event loop. Close stops the loop.
func New(opts Options) *Server {
	s := &Server{
		loop:     schedule.NewLoop(),
		store:    opts.Store,
		keyer:    opts.Keyer,
		logger:   opts.Logger,
		graphOpt: opts.GraphOptions,
		ttl:      opts.SnapshotTTL,
		timeout:  opts.RequestTimeout,
		maxBody:  opts.MaxBodyBytes,
		diagrams: make(map[string]*entry),
	}
	if s.store == nil {
		s.store = store.NewNullStore()
	}
	if s.keyer == nil {
		s.keyer = store.NewDefaultKeyer()
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if s.ttl == 0 {
		s.ttl = store.TTLSnapshot
	}
	if s.timeout == 0 {
		s.timeout = 30 * time.Second
	}
	if s.maxBody == 0 {
		s.maxBody = 4 << 20
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

// Close stops the event loop. Requests still waiting for it fail.
func (s *Server) Close() { s.loop.Close() }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
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
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/healthz", s.handleHealth)

	r.Route("/diagrams", func(r chi.Router) {
		r.Get("/", s.handleListDiagrams)
		r.Post("/", s.handleCreateDiagram)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetDiagram)
			r.Delete("/", s.handleDeleteDiagram)
			r.Post("/paint", s.handlePaint)
			r.Get("/svg", s.handleSVG)
			r.Post("/save", s.handleSave)
			r.Post("/load", s.handleLoad)

			r.Post("/items", s.handleAddItem)
			r.Route("/items/{item}", func(r chi.Router) {
				r.Get("/", s.handleGetItem)
				r.Patch("/", s.handleUpdateItem)
				r.Delete("/", s.handleRemoveItem)
				r.Post("/show", s.handleShowItem)
				r.Post("/hide", s.handleHideItem)
			})
		})
	})
	return r
}

// observe logs each request and reports it to the HTTP hooks.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		took := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, took)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", took,
			"request_id", middleware.GetReqID(r.Context()))
	})
}
