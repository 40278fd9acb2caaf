// Package server provides the HTTP API for recall.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/driftlock/recall/internal/config"
	"github.com/driftlock/recall/internal/embedding"
	"github.com/driftlock/recall/internal/learn"
	"github.com/driftlock/recall/internal/queue"
	"github.com/driftlock/recall/internal/scan"
	"github.com/driftlock/recall/internal/store"
)

// Server is the HTTP server for the recall API. All dependencies are passed
// in explicitly; the server shares the queue and store with the background
// worker but owns no pipeline state of its own.
type Server struct {
	learner  *learn.Learner
	embedder embedding.Embedder
	store    *store.Store
	queue    *queue.Queue
	scanner  *scan.Scanner
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	learner *learn.Learner,
	embedder embedding.Embedder,
	st *store.Store,
	q *queue.Queue,
	scanner *scan.Scanner,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		learner:  learner,
		embedder: embedder,
		store:    st,
		queue:    q,
		scanner:  scanner,
		config:   cfg,
		logger:   logger,
	}
}

// Router returns the configured chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Post("/add", s.handleAdd)
	r.Post("/search", s.handleSearch)
	r.Post("/learn", s.handleLearn)
	r.Post("/scan", s.handleScan)
	r.Get("/entries/{id}", s.handleGetEntry)
	r.Delete("/entries/{id}", s.handleDeleteEntry)
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
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
