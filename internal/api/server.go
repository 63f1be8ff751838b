// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api is the HTTP surface of mediacompose: multipart uploads in,
// composed videos and job records out.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ManuGH/mediacompose/internal/api/middleware"
	"github.com/ManuGH/mediacompose/internal/catalog"
	"github.com/ManuGH/mediacompose/internal/compose"
	"github.com/ManuGH/mediacompose/internal/result"
	"github.com/ManuGH/mediacompose/internal/upload"
	"github.com/go-chi/chi/v5"
)

// Composer runs the core composition.
type Composer interface {
	Compose(ctx context.Context, a compose.AssetSet) (compose.JobOutcome, error)
}

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

// Config wires a Server.
type Config struct {
	Composer Composer
	Receiver *upload.Receiver
	// Catalog may be nil, in which case job lookups return 404.
	Catalog catalog.Store
	Mapper  result.Mapper
	// OutputDir is served read-only under Mapper.PublicPrefix.
	OutputDir string

	AllowedOrigins     []string
	RateLimitPerMinute int
	TracingService     string
	// ReadinessChecks are evaluated by /readyz, keyed by name.
	ReadinessChecks map[string]ReadinessCheck
	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler
}

// Server serves the HTTP API.
type Server struct {
	cfg    Config
	router *chi.Mux
}

// New builds the router. It fails if the embedded API description is
// invalid.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.Composer == nil || cfg.Receiver == nil {
		return nil, errors.New("api: composer and receiver are required")
	}
	if _, err := LoadOpenAPI(ctx); err != nil {
		return nil, err
	}
	s := &Server{cfg: cfg}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *chi.Mux {
	r := middleware.NewRouter(middleware.StackConfig{
		AllowedOrigins: s.cfg.AllowedOrigins,
		EnableMetrics:  true,
		TracingService: s.cfg.TracingService,
		EnableLogging:  true,
	})

	r.Get("/ping", s.handlePing)
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/openapi.yaml", s.handleOpenAPI)
	if s.cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.MetricsHandler)
	}

	r.With(middleware.ComposeRateLimit(s.cfg.RateLimitPerMinute)).Post("/upload", s.handleUpload)

	r.Route("/v1/jobs", func(r chi.Router) {
		r.Get("/", s.handleListJobs)
		r.Get("/{id}", s.handleGetJob)
	})

	prefix := "/" + strings.Trim(s.cfg.Mapper.PublicPrefix, "/")
	r.Get(prefix+"/*", s.videoHandler(prefix).ServeHTTP)

	r.NotFound(s.handleNotFound)
	return r
}
