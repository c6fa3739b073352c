// SPDX-License-Identifier: MIT

// Package status persists the per-album download status row describing
// the latest generated archive.
package status

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/audiofabrik/albumzipd/internal/persistence/sqlite"
)

const schemaVersion = 1

// Archive readiness states.
const (
	StatePending = "pending"
	StateReady   = "ready"
	StateFailed  = "failed"
)

// Record is the durable per-album status row. At most one row exists per
// album; regeneration overwrites the prior row.
type Record struct {
	AlbumID     string    `json:"albumId"`
	ZipPath     string    `json:"zip_file_path"`
	ZipSize     int64     `json:"zip_file_size"`
	GeneratedAt time.Time `json:"generated_at"`
	State       string    `json:"status"`
}

// Recorder is the narrow interface the pipeline consumes.
type Recorder interface {
	Upsert(ctx context.Context, rec Record) error
}

// Store is the SQLite-backed status recorder.
type Store struct {
	DB *sql.DB
}

// NewStore initializes the status store on an existing database handle.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{DB: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("status store: migration failed: %w", err)
	}
	return s, nil
}

// Open opens a standalone status store at dbPath.
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
	// The catalog store shares the same database file and bumps
	// user_version itself, so this schema is applied idempotently rather
	// than gated on the version counter.
	schema := `
	CREATE TABLE IF NOT EXISTS album_downloads (
		album_id TEXT PRIMARY KEY,
		zip_file_path TEXT NOT NULL,
		zip_file_size INTEGER NOT NULL,
		generated_at TEXT NOT NULL,
		status TEXT NOT NULL
	);
	`
	if _, err := s.DB.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Upsert writes the status row for rec.AlbumID, replacing any prior row.
func (s *Store) Upsert(ctx context.Context, rec Record) error {
	query := `
	INSERT INTO album_downloads (album_id, zip_file_path, zip_file_size, generated_at, status)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(album_id) DO UPDATE SET
		zip_file_path = excluded.zip_file_path,
		zip_file_size = excluded.zip_file_size,
		generated_at = excluded.generated_at,
		status = excluded.status
	`
	_, err := s.DB.ExecContext(ctx, query,
		rec.AlbumID, rec.ZipPath, rec.ZipSize, rec.GeneratedAt.UTC().Format(time.RFC3339), rec.State,
	)
	if err != nil {
		return fmt.Errorf("upsert status for album %q: %w", rec.AlbumID, err)
	}
	return nil
}

// Get returns the status row for albumID, or (nil, nil) when none exists.
func (s *Store) Get(ctx context.Context, albumID string) (*Record, error) {
	query := `SELECT album_id, zip_file_path, zip_file_size, generated_at, status FROM album_downloads WHERE album_id = ?`
	var rec Record
	var generatedAt string
	err := s.DB.QueryRowContext(ctx, query, albumID).Scan(
		&rec.AlbumID, &rec.ZipPath, &rec.ZipSize, &generatedAt, &rec.State,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get status for album %q: %w", albumID, err)
	}
	rec.GeneratedAt, err = time.Parse(time.RFC3339, generatedAt)
	if err != nil {
		return nil, fmt.Errorf("get status for album %q: parse generated_at: %w", albumID, err)
	}
	return &rec, nil
}
