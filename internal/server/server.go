// Package server provides the HTTP API for frontdesk.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/hyperjump/frontdesk/internal/config"
	"github.com/hyperjump/frontdesk/internal/grounding"
	"github.com/hyperjump/frontdesk/internal/indexer"
	"github.com/hyperjump/frontdesk/internal/search"
	"github.com/hyperjump/frontdesk/internal/storage"
	"go.uber.org/zap"
)

// RequestIDHeader carries the per-request id set by the server.
const RequestIDHeader = "X-Request-ID"

// WatchService exposes the dataset watcher to the API; nil when watching is disabled.
type WatchService interface {
	Files() []string
	AddFile(path string) error
	RemoveFile(path string) error
}

// Server is the HTTP server for the frontdesk API.
type Server struct {
	grounding *grounding.Service
	engine    *search.Engine
	indexer   *indexer.Indexer
	storage   storage.Storage
	config    *config.Config
	watch     WatchService
	logger    *zap.Logger
	server    *http.Server
	started   time.Time
}

// NewServer creates a server with the given dependencies. watch may be nil.
func NewServer(
	svc *grounding.Service,
	engine *search.Engine,
	idx *indexer.Indexer,
	store storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
	watch WatchService,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		grounding: svc,
		engine:    engine,
		indexer:   idx,
		storage:   store,
		config:    cfg,
		watch:     watch,
		logger:    logger,
		started:   time.Now(),
	}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	if s.config != nil && s.config.Debug {
		r.Use(middleware.Logger)
	}

	r.Post("/api/v1/context", s.handleContext)
	r.Post("/api/v1/search", s.handleSearch)
	r.Post("/api/v1/index", s.handleIndex)
	r.Delete("/api/v1/index", s.handleDropIndex)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

type ctxKey struct{}

// requestID tags every request with a UUID, reusing a valid inbound one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// RequestID returns the id assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
