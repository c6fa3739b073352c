// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/audiofabrik/albumzipd/internal/jobs"
	"github.com/audiofabrik/albumzipd/internal/log"
	"github.com/audiofabrik/albumzipd/internal/objstore"
)

// handleGenerateZip triggers a synchronous pipeline run and returns the
// signed download link. The response vocabulary is fixed; callers only
// ever see the generic messages, detail stays in the log.
func (s *Server) handleGenerateZip(w http.ResponseWriter, r *http.Request) {
	albumID := r.URL.Query().Get("albumId")

	res, err := s.generator.Generate(r.Context(), albumID)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		switch {
		case errors.Is(err, jobs.ErrMissingAlbumID):
			writeErrorMsg(w, http.StatusBadRequest, msgMissingAlbumID)
		case errors.Is(err, jobs.ErrNoTracks):
			logger.Warn().
				Str("event", "zip.request.no_tracks").
				Str("albumId", albumID).
				Msg("no tracks found for album")
			writeErrorMsg(w, http.StatusNotFound, msgNoTracks)
		case errors.Is(err, jobs.ErrBusy):
			logger.Warn().
				Str("event", "zip.request.busy").
				Str("albumId", albumID).
				Msg("generation already in progress")
			writeErrorMsg(w, http.StatusConflict, msgBusy)
		default:
			logger.Error().
				Err(err).
				Str("event", "zip.request.failed").
				Str("albumId", albumID).
				Msg("zip generation failed")
			writeErrorMsg(w, http.StatusInternalServerError, msgGenerateFailed)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"downloadUrl": res.DownloadURL})
}

// handleDownload serves a stored object from the filesystem backend
// after verifying the presigned expires/sig query parameters.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	key := chi.URLParam(r, "key")
	q := r.URL.Query()

	if err := objstore.VerifySignature(s.cfg.SigningSecret, bucket, key, q.Get("expires"), q.Get("sig"), time.Now()); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Warn().
			Err(err).
			Str("event", "download.rejected").
			Str("bucket", bucket).
			Str("key", key).
			Msg("rejected presigned download")
		writeForbidden(w)
		return
	}

	path, err := s.files.ObjectPath(bucket, key)
	if err != nil {
		writeForbidden(w)
		return
	}
	if _, err := os.Stat(path); err != nil {
		writeNotFound(w)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	http.ServeFile(w, r, path)
}

// handleStatus returns the persisted status row for one album.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	albumID := chi.URLParam(r, "albumId")

	rec, err := s.statuses.Get(r.Context(), albumID)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str("event", "status.lookup.failed").
			Str("albumId", albumID).
			Msg("status lookup failed")
		writeErrorMsg(w, http.StatusInternalServerError, "status lookup failed")
		return
	}
	if rec == nil {
		writeNotFound(w)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}
