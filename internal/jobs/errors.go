// SPDX-License-Identifier: MIT

package jobs

import "errors"

// Sentinel errors forming the pipeline's failure taxonomy. Per-track
// fetch and transcode failures never surface here; they are swallowed
// inside the run by design.
var (
	// ErrMissingAlbumID reports an empty album id (caller input error).
	ErrMissingAlbumID = errors.New("missing album id")

	// ErrNoTracks reports that the catalog has no tracks for the album,
	// or that the catalog read failed.
	ErrNoTracks = errors.New("no tracks found for album")

	// ErrBusy reports that another run holds the album's advisory lock.
	// Only possible when a locking backend is configured.
	ErrBusy = errors.New("album archive generation already in progress")

	// ErrEmptyArchive reports a run in which no track could be packed.
	// Only returned when FailOnEmptyArchive is enabled.
	ErrEmptyArchive = errors.New("no tracks could be packed into the archive")
)
