// SPDX-License-Identifier: MIT

// Package catalog reads the ordered track list belonging to an album.
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/audiofabrik/albumzipd/internal/persistence/sqlite"
)

const schemaVersion = 1

// Track is one audio item belonging to an album. Read-only input for the
// archive pipeline.
type Track struct {
	ID      string
	Title   string
	Ordinal int
}

// Lister is the narrow interface the pipeline consumes; it allows tests
// to substitute fakes for the SQLite-backed store.
type Lister interface {
	ListTracks(ctx context.Context, albumID string) ([]Track, error)
}

// Store is the SQLite-backed track catalog.
type Store struct {
	DB *sql.DB
}

// NewStore initializes the catalog store on an existing database handle.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{DB: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("catalog store: migration failed: %w", err)
	}
	return s, nil
}

// Open opens a standalone catalog store at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sqlite.Open(dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	s, err := NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	var currentVersion int
	if err := s.DB.QueryRow("PRAGMA user_version").Scan(&currentVersion); err != nil {
		return err
	}
	if currentVersion >= schemaVersion {
		return nil
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS tracks (
		album_id TEXT NOT NULL,
		id TEXT NOT NULL,
		title TEXT NOT NULL,
		track_number INTEGER NOT NULL,
		PRIMARY KEY (album_id, id)
	);
	CREATE INDEX IF NOT EXISTS idx_tracks_album ON tracks(album_id, track_number);
	`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// ListTracks returns the album's tracks ordered by track number. An album
// with no rows yields an empty slice, not an error; the pipeline decides
// what an empty album means.
func (s *Store) ListTracks(ctx context.Context, albumID string) ([]Track, error) {
	query := `SELECT id, title, track_number FROM tracks WHERE album_id = ? ORDER BY track_number ASC`
	rows, err := s.DB.QueryContext(ctx, query, albumID)
	if err != nil {
		return nil, fmt.Errorf("list tracks for album %q: %w", albumID, err)
	}
	defer func() { _ = rows.Close() }()

	var tracks []Track
	for rows.Next() {
		var t Track
		if err := rows.Scan(&t.ID, &t.Title, &t.Ordinal); err != nil {
			return nil, fmt.Errorf("scan track row: %w", err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate track rows: %w", err)
	}
	return tracks, nil
}

// Put inserts or replaces one track row. Used by tests and fixture loaders;
// the pipeline itself never mutates the catalog.
func (s *Store) Put(ctx context.Context, albumID string, t Track) error {
	query := `
	INSERT INTO tracks (album_id, id, title, track_number)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(album_id, id) DO UPDATE SET
		title = excluded.title,
		track_number = excluded.track_number
	`
	_, err := s.DB.ExecContext(ctx, query, albumID, t.ID, t.Title, t.Ordinal)
	return err
}
