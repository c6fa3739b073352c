// SPDX-License-Identifier: MIT

// Package metrics defines the Prometheus collectors for albumzipd.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ZipRuns counts archive generation runs by result.
	ZipRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "albumzipd_zip_runs_total",
		Help: "Archive generation runs by result",
	}, []string{"result"})

	// ZipTracks counts per-track outcomes inside runs.
	ZipTracks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "albumzipd_zip_tracks_total",
		Help: "Per-track outcomes during archive generation",
	}, []string{"outcome"})

	// ZipRunDuration tracks end-to-end run duration.
	ZipRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "albumzipd_zip_run_duration_seconds",
		Help:    "Duration of archive generation runs",
		Buckets: prometheus.ExponentialBuckets(0.1, 2.0, 12), // 100ms to ~200s
	})

	// ZipArchiveBytes tracks finalized archive sizes.
	ZipArchiveBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "albumzipd_zip_archive_bytes",
		Help:    "Size of finalized archives in bytes",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KiB to ~256MiB
	})

	// ZipEmptyArchives counts runs that finalized with zero tracks.
	ZipEmptyArchives = promauto.NewCounter(prometheus.CounterOpts{
		Name: "albumzipd_zip_empty_archives_total",
		Help: "Runs that produced an archive with zero successful tracks",
	})

	// TranscodeDuration tracks single-track encoder invocations.
	TranscodeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "albumzipd_transcode_duration_seconds",
		Help:    "Duration of encoder invocations",
		Buckets: prometheus.ExponentialBuckets(0.05, 2.0, 12),
	})

	// TranscodeErrors counts encoder failures by type.
	TranscodeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "albumzipd_transcode_errors_total",
		Help: "Encoder failures by error type",
	}, []string{"error_type"})
)

// Per-track outcome labels.
const (
	TrackOutcomeOK               = "ok"
	TrackOutcomeSkippedFetch     = "skipped_fetch"
	TrackOutcomeSkippedTranscode = "skipped_transcode"
)

// Run result labels.
const (
	RunResultSuccess = "success"
	RunResultError   = "error"
)
