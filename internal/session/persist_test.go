package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxleaf/parlour/internal/savegame"
)

var _ savegame.Session = (*Session)(nil)

func openTestStore(t *testing.T) *savegame.Store {
	t.Helper()
	store, err := savegame.Open(filepath.Join(t.TempDir(), "parlour.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPersistence_SaveLoadThroughStore(t *testing.T) {
	s := newTestSession(t)
	store := openTestStore(t)
	ctx := context.Background()
	startEmptyGame(t, s)

	clickAt(t, s, 0, 0)
	clickAt(t, s, 1, 0)
	s.AddCheckpoint()

	require.NoError(t, store.SaveGame(ctx, s, "evening game"))

	// Keep playing past the snapshot, then come back to it.
	clickAt(t, s, 2, 0)
	require.Equal(t, 3, s.State.TotalMoves.Get())

	res, err := store.LoadGame(ctx, s, "evening game")
	require.NoError(t, err)
	require.Empty(t, res.Err)
	assert.Equal(t, emptyGameID, res.GameID)
	assert.Equal(t, 2, s.State.CurrentMove.Get())
	assert.Equal(t, 2, s.State.TotalMoves.Get())
	assert.Equal(t, []int{2}, s.Checkpoints(), "bookmark snapshot restored")

	saves, err := store.ListSavedGames(ctx, s.PuzzleID())
	require.NoError(t, err)
	require.Len(t, saves, 1)
	assert.Equal(t, s.Status(), saves[0].Status)
	assert.Equal(t, emptyGameID, saves[0].GameID)
}

func TestPersistence_AutosaveRestore(t *testing.T) {
	s := newTestSession(t)
	store := openTestStore(t)
	ctx := context.Background()
	startEmptyGame(t, s)
	clickAt(t, s, 0, 0)

	require.NoError(t, store.AutoSaveGame(ctx, s, s.AutosaveID()))

	name, err := store.FindMostRecentAutoSave(ctx, s.PuzzleID())
	require.NoError(t, err)
	assert.Equal(t, s.AutosaveID(), name)

	// A second session of the same puzzle resumes from the autosave.
	fresh := newTestSession(t)
	found, err := store.RestoreAutoSavedGame(ctx, fresh, name)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, emptyGameID, fresh.State.CurrentGameID.Get())
	assert.Equal(t, 1, fresh.State.TotalMoves.Get())
}
