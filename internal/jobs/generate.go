// SPDX-License-Identifier: MIT

// Package jobs contains the archive generation pipeline: fetch each
// track's source audio, transcode, pack into a zip, publish, and record
// the album's download status.
package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/audiofabrik/albumzipd/internal/archive"
	"github.com/audiofabrik/albumzipd/internal/catalog"
	"github.com/audiofabrik/albumzipd/internal/lock"
	azdlog "github.com/audiofabrik/albumzipd/internal/log"
	"github.com/audiofabrik/albumzipd/internal/metrics"
	"github.com/audiofabrik/albumzipd/internal/objstore"
	"github.com/audiofabrik/albumzipd/internal/status"
	"github.com/audiofabrik/albumzipd/internal/transcode"
)

const (
	sourceExt   = ".wav"
	targetExt   = ".mp3"
	archiveType = "application/zip"
)

// Config holds the pipeline's tunables.
type Config struct {
	AudioBucket   string
	ArchiveBucket string

	LinkTTL      time.Duration
	FetchTimeout time.Duration

	// Workers bounds the per-run track fan-out. 1 means strictly
	// sequential processing.
	Workers int

	// FailOnEmptyArchive turns a run with zero packed tracks into a
	// fatal error instead of publishing a near-empty archive.
	FailOnEmptyArchive bool

	// TempDir overrides the base directory for run-scoped working
	// directories. Empty means the system default.
	TempDir string
}

// Result describes a completed run.
type Result struct {
	DownloadURL   string
	ExpiresAt     time.Time
	ArchiveKey    string
	ArchiveSize   int64
	TracksTotal   int
	TracksPacked  int
	TracksSkipped int
}

// Runner wires the pipeline's collaborators. All handles are passed in
// explicitly so tests can substitute fakes.
type Runner struct {
	catalog catalog.Lister
	store   objstore.Store
	encoder transcode.Encoder
	status  status.Recorder
	locker  lock.Locker
	cfg     Config
}

// NewRunner constructs a Runner. A nil locker defaults to the no-op
// locker (last-write-wins between concurrent runs).
func NewRunner(cat catalog.Lister, store objstore.Store, enc transcode.Encoder, rec status.Recorder, locker lock.Locker, cfg Config) *Runner {
	if locker == nil {
		locker = lock.Noop{}
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = 900 * time.Second
	}
	return &Runner{
		catalog: cat,
		store:   store,
		encoder: enc,
		status:  rec,
		locker:  locker,
		cfg:     cfg,
	}
}

// trackResult holds the per-track outcome, indexed by catalog position
// so archive assembly stays in ordinal order regardless of completion
// order.
type trackResult struct {
	data    []byte
	outcome string
}

// Generate runs the full pipeline for one album and returns the signed
// download link. Per-track fetch/transcode failures are skipped; every
// other failure aborts the run.
func (r *Runner) Generate(ctx context.Context, albumID string) (*Result, error) {
	albumID = strings.TrimSpace(albumID)
	if albumID == "" {
		return nil, ErrMissingAlbumID
	}

	jobID := uuid.New().String()
	ctx = azdlog.ContextWithJobID(ctx, jobID)
	ctx = azdlog.ContextWithAlbumID(ctx, albumID)
	logger := azdlog.WithComponentFromContext(ctx, "jobs")

	start := time.Now()
	logger.Info().Str("event", "zip.start").Msg("starting archive generation")

	tracks, err := r.catalog.ListTracks(ctx, albumID)
	if err != nil {
		logger.Error().Err(err).Str("event", "zip.catalog_error").Msg("catalog read failed")
		return nil, fmt.Errorf("%w: %v", ErrNoTracks, err)
	}
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}

	release, ok, err := r.locker.Acquire(ctx, albumID)
	if err != nil {
		return nil, fmt.Errorf("acquire album lock: %w", err)
	}
	if !ok {
		return nil, ErrBusy
	}
	defer release()

	if err := r.status.Upsert(ctx, status.Record{
		AlbumID:     albumID,
		ZipPath:     albumID + ".zip",
		GeneratedAt: time.Now().UTC(),
		State:       status.StatePending,
	}); err != nil {
		return nil, fmt.Errorf("record pending status: %w", err)
	}

	workDir, err := os.MkdirTemp(r.cfg.TempDir, "albumzipd-*")
	if err != nil {
		r.markFailed(ctx, albumID)
		return nil, fmt.Errorf("create working directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			logger.Error().Err(rmErr).
				Str("event", "zip.workdir_cleanup_failed").
				Str("path", workDir).
				Msg("failed to remove working directory")
		}
	}()

	results := r.processTracks(ctx, workDir, tracks)

	builder := archive.NewBuilder()
	packed := 0
	for i, tr := range tracks {
		if results[i].data == nil {
			continue
		}
		name := fmt.Sprintf("%d - %s%s", tr.Ordinal, tr.Title, targetExt)
		if err := builder.AddEntry(name, results[i].data); err != nil {
			r.markFailed(ctx, albumID)
			return nil, fmt.Errorf("add archive entry: %w", err)
		}
		packed++
	}
	skipped := len(tracks) - packed

	if packed == 0 {
		metrics.ZipEmptyArchives.Inc()
		logger.Warn().
			Str("event", "zip.empty_archive").
			Int("tracks_total", len(tracks)).
			Msg("no tracks could be packed")
		if r.cfg.FailOnEmptyArchive {
			r.markFailed(ctx, albumID)
			metrics.ZipRuns.WithLabelValues(metrics.RunResultError).Inc()
			return nil, ErrEmptyArchive
		}
	}

	blob, err := builder.Finalize()
	if err != nil {
		r.markFailed(ctx, albumID)
		return nil, fmt.Errorf("finalize archive: %w", err)
	}

	archiveKey := albumID + ".zip"
	if err := r.store.Upload(ctx, r.cfg.ArchiveBucket, archiveKey, blob, archiveType); err != nil {
		r.markFailed(ctx, albumID)
		metrics.ZipRuns.WithLabelValues(metrics.RunResultError).Inc()
		return nil, fmt.Errorf("publish archive: %w", err)
	}

	downloadURL, expiresAt, err := r.store.SignedURL(r.cfg.ArchiveBucket, archiveKey, r.cfg.LinkTTL)
	if err != nil {
		r.markFailed(ctx, albumID)
		metrics.ZipRuns.WithLabelValues(metrics.RunResultError).Inc()
		return nil, fmt.Errorf("sign download link: %w", err)
	}

	// The ready row is the durable claim that the archive exists, so it
	// is written only after the upload succeeded.
	if err := r.status.Upsert(ctx, status.Record{
		AlbumID:     albumID,
		ZipPath:     archiveKey,
		ZipSize:     int64(len(blob)),
		GeneratedAt: time.Now().UTC(),
		State:       status.StateReady,
	}); err != nil {
		metrics.ZipRuns.WithLabelValues(metrics.RunResultError).Inc()
		return nil, fmt.Errorf("record ready status: %w", err)
	}

	duration := time.Since(start)
	metrics.ZipRuns.WithLabelValues(metrics.RunResultSuccess).Inc()
	metrics.ZipRunDuration.Observe(duration.Seconds())
	metrics.ZipArchiveBytes.Observe(float64(len(blob)))

	logger.Info().
		Str("event", "zip.success").
		Int("tracks_total", len(tracks)).
		Int("tracks_packed", packed).
		Int("tracks_skipped", skipped).
		Int("archive_bytes", len(blob)).
		Dur("duration", duration).
		Msg("archive generated")

	return &Result{
		DownloadURL:   downloadURL,
		ExpiresAt:     expiresAt,
		ArchiveKey:    archiveKey,
		ArchiveSize:   int64(len(blob)),
		TracksTotal:   len(tracks),
		TracksPacked:  packed,
		TracksSkipped: skipped,
	}, nil
}

// processTracks runs the fetch/transcode cycle for every track with
// bounded fan-out. Workers never return errors: each track's outcome is
// recorded at its catalog index and failures simply leave data nil.
func (r *Runner) processTracks(ctx context.Context, workDir string, tracks []catalog.Track) []trackResult {
	results := make([]trackResult, len(tracks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, tr := range tracks {
		i, tr := i, tr
		g.Go(func() error {
			results[i] = r.processTrack(gctx, workDir, tr)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (r *Runner) processTrack(ctx context.Context, workDir string, tr catalog.Track) trackResult {
	logger := azdlog.WithComponentFromContext(ctx, "jobs")

	fetchCtx := ctx
	if r.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, r.cfg.FetchTimeout)
		defer cancel()
	}

	sourceKey := tr.ID + sourceExt
	data, err := r.store.Download(fetchCtx, r.cfg.AudioBucket, sourceKey)
	if err != nil {
		logger.Warn().Err(err).
			Str("event", "track.fetch_failed").
			Str("track_id", tr.ID).
			Str("key", sourceKey).
			Msg("skipping track: source fetch failed")
		metrics.ZipTracks.WithLabelValues(metrics.TrackOutcomeSkippedFetch).Inc()
		return trackResult{outcome: metrics.TrackOutcomeSkippedFetch}
	}

	srcPath := filepath.Join(workDir, tr.ID+sourceExt)
	if err := os.WriteFile(srcPath, data, 0o600); err != nil {
		logger.Warn().Err(err).
			Str("event", "track.write_failed").
			Str("track_id", tr.ID).
			Msg("skipping track: could not persist source")
		metrics.ZipTracks.WithLabelValues(metrics.TrackOutcomeSkippedFetch).Inc()
		return trackResult{outcome: metrics.TrackOutcomeSkippedFetch}
	}

	dstPath := filepath.Join(workDir, tr.ID+targetExt)
	if err := r.encoder.Transcode(ctx, srcPath, dstPath); err != nil {
		logger.Warn().Err(err).
			Str("event", "track.transcode_failed").
			Str("track_id", tr.ID).
			Msg("skipping track: transcode failed")
		metrics.ZipTracks.WithLabelValues(metrics.TrackOutcomeSkippedTranscode).Inc()
		return trackResult{outcome: metrics.TrackOutcomeSkippedTranscode}
	}

	out, err := os.ReadFile(dstPath)
	if err != nil {
		logger.Warn().Err(err).
			Str("event", "track.read_failed").
			Str("track_id", tr.ID).
			Msg("skipping track: could not read transcoded output")
		metrics.ZipTracks.WithLabelValues(metrics.TrackOutcomeSkippedTranscode).Inc()
		return trackResult{outcome: metrics.TrackOutcomeSkippedTranscode}
	}

	metrics.ZipTracks.WithLabelValues(metrics.TrackOutcomeOK).Inc()
	return trackResult{data: out, outcome: metrics.TrackOutcomeOK}
}

// markFailed records the failed state best-effort; the original error
// is what surfaces to the caller.
func (r *Runner) markFailed(ctx context.Context, albumID string) {
	if err := r.status.Upsert(ctx, status.Record{
		AlbumID:     albumID,
		ZipPath:     albumID + ".zip",
		GeneratedAt: time.Now().UTC(),
		State:       status.StateFailed,
	}); err != nil {
		logger := azdlog.WithComponentFromContext(ctx, "jobs")
		logger.Error().Err(err).
			Str("event", "zip.status_failed_write").
			Msg("failed to record failed status")
	}
}
