// SPDX-License-Identifier: MIT

// Command daemon runs the albumzipd HTTP service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/audiofabrik/albumzipd/internal/api"
	"github.com/audiofabrik/albumzipd/internal/catalog"
	"github.com/audiofabrik/albumzipd/internal/config"
	"github.com/audiofabrik/albumzipd/internal/health"
	"github.com/audiofabrik/albumzipd/internal/jobs"
	"github.com/audiofabrik/albumzipd/internal/lock"
	azdlog "github.com/audiofabrik/albumzipd/internal/log"
	"github.com/audiofabrik/albumzipd/internal/objstore"
	"github.com/audiofabrik/albumzipd/internal/persistence/sqlite"
	"github.com/audiofabrik/albumzipd/internal/status"
	"github.com/audiofabrik/albumzipd/internal/transcode"
)

var (
	version   = "v1.0.0"
	commit    = "none"
	buildDate = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Safe defaults until the real config is loaded.
	azdlog.Configure(azdlog.Config{
		Level:   "info",
		Service: "albumzipd",
		Version: version,
	})

	logger := azdlog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv(version)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.invalid").
			Msg("configuration validation failed")
	}

	azdlog.Configure(azdlog.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})

	logger.Info().
		Str("event", "config.loaded").
		Str("listen", cfg.Listen).
		Str("store_backend", cfg.StoreBackend).
		Str("lock_backend", cfg.LockBackend).
		Int("workers", cfg.Workers).
		Msg("loaded configuration from environment and defaults")

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "datadir.create.failed").
			Str("path", cfg.DataDir).
			Msg("failed to create data directory")
	}

	db, err := sqlite.Open(cfg.DBPath, sqlite.DefaultConfig())
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "db.open.failed").
			Str("path", cfg.DBPath).
			Msg("failed to open database")
	}
	defer func() { _ = db.Close() }()

	catalogStore, err := catalog.NewStore(db)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "catalog.migrate.failed").
			Msg("failed to prepare track catalog")
	}

	statusStore, err := status.NewStore(db)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "status.migrate.failed").
			Msg("failed to prepare status table")
	}

	store, files, err := buildStore(cfg)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "store.init.failed").
			Str("backend", cfg.StoreBackend).
			Msg("failed to initialize object store")
	}

	locker, lockerClose, err := buildLocker(cfg)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "lock.init.failed").
			Str("backend", cfg.LockBackend).
			Msg("failed to initialize advisory locker")
	}
	if lockerClose != nil {
		defer lockerClose()
	}

	encoder := transcode.New(cfg.FFmpegBin, cfg.BitrateKbps, cfg.TranscodeTimeout)

	runner := jobs.NewRunner(catalogStore, store, encoder, statusStore, locker, jobs.Config{
		AudioBucket:        cfg.AudioBucket,
		ArchiveBucket:      cfg.ArchiveBucket,
		LinkTTL:            cfg.LinkTTL,
		FetchTimeout:       cfg.FetchTimeout,
		Workers:            cfg.Workers,
		FailOnEmptyArchive: cfg.FailOnEmptyArchive,
	})

	hm := health.NewManager(version)
	hm.Register(health.DatabaseChecker{DB: db})
	if files != nil {
		root := cfg.StoreRoot
		hm.Register(health.CheckerFunc{
			CheckName: "store",
			Fn: func(context.Context) error {
				_, statErr := os.Stat(root)
				return statErr
			},
		})
	}

	server := api.New(runner, statusStore, files, hm, api.Config{
		SigningSecret:  []byte(cfg.SigningSecret),
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("event", "server.start").
			Str("listen", cfg.Listen).
			Str("version", version).
			Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().
			Str("event", "server.shutdown").
			Msg("shutdown signal received")
	case err := <-errCh:
		logger.Fatal().
			Err(err).
			Str("event", "server.failed").
			Msg("HTTP server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().
			Err(err).
			Str("event", "server.shutdown.failed").
			Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server exiting")
}

// buildStore selects the object store backend. The *FSStore return is
// non-nil only for the filesystem backend, so the API can mount the
// /download route.
func buildStore(cfg config.AppConfig) (objstore.Store, *objstore.FSStore, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendFS:
		fs, err := objstore.NewFSStore(cfg.StoreRoot, cfg.PublicBaseURL, []byte(cfg.SigningSecret))
		if err != nil {
			return nil, nil, err
		}
		return fs, fs, nil
	case config.StoreBackendHTTP:
		store := objstore.NewHTTPStore(cfg.StoreBaseURL, objstore.HTTPOptions{
			Token:  cfg.StoreToken,
			Secret: []byte(cfg.SigningSecret),
		})
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// buildLocker selects the advisory locker. A nil Locker makes the
// runner fall back to last-write-wins.
func buildLocker(cfg config.AppConfig) (lock.Locker, func(), error) {
	switch cfg.LockBackend {
	case config.LockBackendNone:
		return nil, nil, nil
	case config.LockBackendRedis:
		locker, err := lock.NewRedisLocker(lock.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.LockTTL,
		}, azdlog.WithComponent("lock"))
		if err != nil {
			return nil, nil, err
		}
		return locker, func() { _ = locker.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown lock backend %q", cfg.LockBackend)
	}
}
