// SPDX-License-Identifier: MIT

// Package api exposes the album archive pipeline over HTTP: the
// generation trigger, the signed download route for the filesystem
// backend, status lookups and the operational probes.
package api

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/audiofabrik/albumzipd/internal/health"
	"github.com/audiofabrik/albumzipd/internal/jobs"
	"github.com/audiofabrik/albumzipd/internal/log"
	"github.com/audiofabrik/albumzipd/internal/objstore"
	"github.com/audiofabrik/albumzipd/internal/status"
)

// Generator runs the archive pipeline for one album.
type Generator interface {
	Generate(ctx context.Context, albumID string) (*jobs.Result, error)
}

// StatusReader looks up the persisted per-album status row.
type StatusReader interface {
	Get(ctx context.Context, albumID string) (*status.Record, error)
}

// Config holds the server's request-handling knobs.
type Config struct {
	// SigningSecret verifies presigned /download links.
	SigningSecret []byte
	// RateLimitRPS and RateLimitBurst bound /generate-zip per client IP.
	RateLimitRPS   int
	RateLimitBurst int
}

// Server wires handlers, middleware and collaborators into a chi mux.
type Server struct {
	generator Generator
	statuses  StatusReader
	// files is non-nil only for the filesystem store backend; it backs
	// the /download route.
	files  *objstore.FSStore
	health *health.Manager
	cfg    Config
	logger zerolog.Logger
}

// New constructs a Server. files may be nil when objects are served by
// an external content store.
func New(gen Generator, statuses StatusReader, files *objstore.FSStore, hm *health.Manager, cfg Config) *Server {
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 5
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 10
	}
	return &Server{
		generator: gen,
		statuses:  statuses,
		files:     files,
		health:    hm,
		cfg:       cfg,
		logger:    log.WithComponent("api"),
	}
}

// Router builds the HTTP routing table with the canonical middleware
// order: Recoverer outermost, then correlation, metrics and logging.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(Recoverer)
	r.Use(RequestID)
	r.Use(Metrics())
	r.Use(RequestLogger)

	r.Group(func(r chi.Router) {
		r.Use(RateLimit(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst))
		r.Get("/generate-zip", s.handleGenerateZip)
		r.Post("/generate-zip", s.handleGenerateZip)
	})

	if s.files != nil {
		r.Get("/download/{bucket}/{key}", s.handleDownload)
	}
	r.Get("/api/status/{albumId}", s.handleStatus)

	if s.health != nil {
		r.Get("/healthz", s.health.HandleHealth)
		r.Get("/readyz", s.health.HandleReady)
	}
	r.Method("GET", "/metrics", promhttp.Handler())

	return r
}
