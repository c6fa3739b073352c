// SPDX-License-Identifier: MIT

package status

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "status.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.DB.Close() })
	return s
}

func TestUpsertAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.Upsert(ctx, Record{
		AlbumID:     "A1",
		ZipPath:     "A1.zip",
		ZipSize:     1024,
		GeneratedAt: now,
		State:       StateReady,
	}))

	rec, err := s.Get(ctx, "A1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "A1.zip", rec.ZipPath)
	assert.Equal(t, int64(1024), rec.ZipSize)
	assert.Equal(t, StateReady, rec.State)
	assert.True(t, rec.GeneratedAt.Equal(now))
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)

	rec, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestGetCorruptTimestamp(t *testing.T) {
	s := openTestStore(t)

	_, err := s.DB.Exec(
		`INSERT INTO album_downloads (album_id, zip_file_path, zip_file_size, generated_at, status) VALUES (?, ?, ?, ?, ?)`,
		"A1", "A1.zip", 10, "not-a-timestamp", StateReady,
	)
	require.NoError(t, err)

	rec, err := s.Get(context.Background(), "A1")
	assert.Nil(t, rec)
	assert.ErrorContains(t, err, "parse generated_at")
}

func TestRegenerationOverwritesRow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, s.Upsert(ctx, Record{AlbumID: "A1", ZipPath: "A1.zip", ZipSize: 10, GeneratedAt: first, State: StatePending}))

	second := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.Upsert(ctx, Record{AlbumID: "A1", ZipPath: "A1.zip", ZipSize: 2048, GeneratedAt: second, State: StateReady}))

	// exactly one row, the later write wins
	var count int
	require.NoError(t, s.DB.QueryRow("SELECT COUNT(*) FROM album_downloads").Scan(&count))
	assert.Equal(t, 1, count)

	rec, err := s.Get(ctx, "A1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, StateReady, rec.State)
	assert.Equal(t, int64(2048), rec.ZipSize)
	assert.False(t, rec.GeneratedAt.Before(first))
}
