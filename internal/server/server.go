// Package server exposes the sync operations over a single-endpoint HTTP
// API. Every operation is a JSON POST; errors are reported in-band so thin
// clients only have to parse one response shape.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"sheet-sync/internal/changelog"
	"sheet-sync/internal/consistency"
	"sheet-sync/internal/deltasync"
	"sheet-sync/internal/nats"
	"sheet-sync/internal/schema"
	"sheet-sync/internal/store"
)

// Config holds the HTTP and protocol settings.
type Config struct {
	Addr         string
	Secret       string
	DefaultLimit int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server wires the sync components behind the HTTP endpoint. A single mutex
// serializes all mutating operations: condensation rewrites one shared
// table, and concurrent applies could interleave row positions.
type Server struct {
	cfg       Config
	grid      store.Grid
	reg       *schema.Registry
	log       *changelog.Log
	engine    *deltasync.Engine
	checker   *consistency.Checker
	publisher *nats.Publisher
	logger    *logrus.Logger

	mu   sync.Mutex
	http *http.Server
}

// New creates a Server. The publisher may be nil when notifications are
// disabled.
func New(cfg Config, grid store.Grid, reg *schema.Registry, log *changelog.Log, engine *deltasync.Engine, checker *consistency.Checker, publisher *nats.Publisher, logger *logrus.Logger) *Server {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 200
	}
	s := &Server{
		cfg:       cfg,
		grid:      grid,
		reg:       reg,
		log:       log,
		engine:    engine,
		checker:   checker,
		publisher: publisher,
		logger:    logger,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Start blocks serving HTTP until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.logger.Infof("Listening on %s", s.cfg.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the root handler for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}
