package sync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kaushik-93/Engram-sub000/internal/storage"
)

func TestRunPromotesAndPrunes(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "sync_test.db"))
	require.NoError(t, err)
	defer db.Close()

	notesDir := t.TempDir()
	notes := filepath.Join(notesDir, "bio.md")
	require.NoError(t, os.WriteFile(notes, []byte("C: Mitochondria make ATP\nH: Cell biology\n---\nC: DNA is a double helix\n"), 0o644))

	sourceID, err := db.InsertSource("Biology", notesDir, "local")
	require.NoError(t, err)

	require.NoError(t, Run(db, t.TempDir()))

	items, err := db.ItemsBySourceID(sourceID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, 0, item.IntervalMinutes)
		assert.Equal(t, 1.0, item.Stability)
		assert.Nil(t, item.LastRecalledAt)
	}

	t.Run("second run promotes nothing new", func(t *testing.T) {
		require.NoError(t, Run(db, t.TempDir()))
		items, err := db.ItemsBySourceID(sourceID)
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("removed content prunes its item", func(t *testing.T) {
		require.NoError(t, os.WriteFile(notes, []byte("C: Mitochondria make ATP\nH: Cell biology\n"), 0o644))
		require.NoError(t, Run(db, t.TempDir()))

		items, err := db.ItemsBySourceID(sourceID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Mitochondria make ATP", items[0].Concept)
	})

	source, err := db.FindSourceByPath(notesDir)
	require.NoError(t, err)
	assert.True(t, source.LastSyncedAt.Valid)
}

func TestGitURLToLocalPath(t *testing.T) {
	testCases := []struct {
		name     string
		url      string
		expected string
		wantErr  bool
	}{
		{
			name:     "https URL",
			url:      "https://github.com/someone/notes.git",
			expected: filepath.Join("repos", "github.com", "someone", "notes"),
		},
		{
			name:     "scp-style ssh address",
			url:      "git@github.com:someone/notes.git",
			expected: filepath.Join("repos", "github.com", "someone", "notes"),
		},
		{
			name:    "unparseable",
			url:     "not a url",
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := gitURLToLocalPath("repos", tc.url)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}
