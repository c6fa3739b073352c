// SPDX-License-Identifier: MIT

package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.DB.Close() })
	return s
}

func TestListTracksOrdering(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// inserted out of order on purpose
	require.NoError(t, s.Put(ctx, "A1", Track{ID: "t2", Title: "Outro", Ordinal: 2}))
	require.NoError(t, s.Put(ctx, "A1", Track{ID: "t1", Title: "Intro", Ordinal: 1}))
	require.NoError(t, s.Put(ctx, "A2", Track{ID: "x1", Title: "Other", Ordinal: 1}))

	tracks, err := s.ListTracks(ctx, "A1")
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, Track{ID: "t1", Title: "Intro", Ordinal: 1}, tracks[0])
	assert.Equal(t, Track{ID: "t2", Title: "Outro", Ordinal: 2}, tracks[1])
}

func TestListTracksEmptyAlbum(t *testing.T) {
	s := openTestStore(t)

	tracks, err := s.ListTracks(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, tracks)
}

func TestPutUpserts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "A1", Track{ID: "t1", Title: "Draft", Ordinal: 1}))
	require.NoError(t, s.Put(ctx, "A1", Track{ID: "t1", Title: "Final", Ordinal: 3}))

	tracks, err := s.ListTracks(ctx, "A1")
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Final", tracks[0].Title)
	assert.Equal(t, 3, tracks[0].Ordinal)
}
