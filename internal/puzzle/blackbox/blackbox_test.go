package blackbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxleaf/parlour/internal/puzzle"
)

// hookLog records hook invocations for assertions.
type hookLog struct {
	params     int
	gameID     int
	statusbar  []string
	activate   int
	deactivate int
}

func (l *hookLog) hooks() puzzle.Hooks {
	return puzzle.Hooks{
		ParamsChanged:   func() { l.params++ },
		GameIDChanged:   func() { l.gameID++ },
		StatusBar:       func(text string) { l.statusbar = append(l.statusbar, text) },
		ActivateTimer:   func() { l.activate++ },
		DeactivateTimer: func() { l.deactivate++ },
	}
}

func newTestBackend(t *testing.T) (*Backend, *hookLog) {
	t.Helper()
	log := &hookLog{}
	b := New(log.hooks()).(*Backend)
	return b, log
}

// startGame applies a deterministic 3x3 all-unlit game.
func startGame(t *testing.T, b *Backend) {
	t.Helper()
	require.Empty(t, b.SetGameID("3x3:0000"))
	b.NewGame()
}

func TestDecodeParams(t *testing.T) {
	tests := []struct {
		encoded string
		want    params
		wantErr bool
	}{
		{encoded: "3x3", want: params{W: 3, H: 3}},
		{encoded: "4x5h", want: params{W: 4, H: 5, Mode: modeHard}},
		{encoded: "16x2", want: params{W: 16, H: 2}},
		{encoded: "1x3", wantErr: true},
		{encoded: "17x3", wantErr: true},
		{encoded: "wide", wantErr: true},
		{encoded: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.encoded, func(t *testing.T) {
			p, errstr := decodeParams(tt.encoded)
			if tt.wantErr {
				assert.NotEmpty(t, errstr)
				return
			}
			require.Empty(t, errstr)
			assert.Equal(t, tt.want, p)
			assert.Equal(t, tt.encoded, p.encode())
		})
	}
}

func TestNew_AnnouncesParams(t *testing.T) {
	_, log := newTestBackend(t)
	assert.Equal(t, 1, log.params)
}

func TestNewGame_SeededIsDeterministic(t *testing.T) {
	a, _ := newTestBackend(t)
	require.Empty(t, a.SetGameID("4x4#12345"))
	a.NewGame()

	b, _ := newTestBackend(t)
	require.Empty(t, b.SetGameID("4x4#12345"))
	b.NewGame()

	assert.Equal(t, a.GameID(), b.GameID())
	assert.Equal(t, "12345", a.Seed())
}

func TestGameID_RoundTrip(t *testing.T) {
	a, _ := newTestBackend(t)
	a.NewGame()
	id := a.GameID()

	b, _ := newTestBackend(t)
	require.Empty(t, b.SetGameID(id))
	b.NewGame()

	assert.Equal(t, id, b.GameID())
	assert.Empty(t, b.Seed(), "descriptive ids have no seed")
}

func TestSetGameID_Malformed(t *testing.T) {
	b, _ := newTestBackend(t)

	assert.NotEmpty(t, b.SetGameID("nonsense"))
	assert.NotEmpty(t, b.SetGameID("3x3:zz"))
	assert.NotEmpty(t, b.SetGameID("3x3:00"), "pattern length mismatch")
	assert.NotEmpty(t, b.SetGameID("3x3#notanumber"))
	assert.NotEmpty(t, b.SetGameID("99x99:0000"))
}

func TestUndoRedo_Bounds(t *testing.T) {
	b, _ := newTestBackend(t)
	startGame(t, b)

	assert.False(t, b.Undo(), "nothing to undo at move 0")
	assert.False(t, b.Redo())

	require.Equal(t, puzzle.KeySomeEffect, b.ProcessKey(5, 5, puzzle.BtnLeft))
	cur, total := b.MoveCounts()
	assert.Equal(t, 1, cur)
	assert.Equal(t, 1, total)
	assert.True(t, b.CanUndo())
	assert.False(t, b.CanRedo())

	require.True(t, b.Undo())
	assert.True(t, b.CanRedo())
	require.True(t, b.Redo())
	assert.False(t, b.Redo())
}

func TestBranch_DiscardsRedo(t *testing.T) {
	b, _ := newTestBackend(t)
	startGame(t, b)

	b.ProcessKey(5, 5, puzzle.BtnLeft)
	b.ProcessKey(40, 5, puzzle.BtnLeft)
	require.True(t, b.Undo())

	b.ProcessKey(5, 40, puzzle.BtnLeft)
	_, total := b.MoveCounts()
	assert.Equal(t, 2, total)
	assert.False(t, b.CanRedo())
}

func TestCursorMotion_IsNotAMove(t *testing.T) {
	b, _ := newTestBackend(t)
	startGame(t, b)

	assert.Equal(t, puzzle.KeySomeEffect, b.ProcessKey(0, 0, puzzle.BtnCursorRight))
	_, total := b.MoveCounts()
	assert.Equal(t, 0, total)

	assert.Equal(t, puzzle.KeyNoEffect, b.ProcessKey(0, 0, puzzle.BtnCursorUp), "cursor stays on the grid")

	// Select toggles at the cursor, which is a move.
	assert.Equal(t, puzzle.KeySomeEffect, b.ProcessKey(0, 0, puzzle.BtnSelect))
	_, total = b.MoveCounts()
	assert.Equal(t, 1, total)
}

func TestSolve_MarksAssisted(t *testing.T) {
	b, log := newTestBackend(t)
	startGame(t, b)

	require.Empty(t, b.Solve())
	assert.Equal(t, puzzle.StatusValueSolvedAssisted, b.StatusValue())
	assert.Equal(t, "already solved", b.Solve())
	assert.Equal(t, 1, log.activate, "solved flash starts the timer")

	// Undoing the solve returns to ongoing.
	require.True(t, b.Undo())
	assert.Equal(t, puzzle.StatusValueOngoing, b.StatusValue())
}

func TestSolve_ByHandIsUnassisted(t *testing.T) {
	b, _ := newTestBackend(t)
	// One unlit lamp: a single click wins.
	require.Empty(t, b.SetGameID("2x2:0e"))
	b.NewGame()

	require.Equal(t, puzzle.KeySomeEffect, b.ProcessKey(5, 5, puzzle.BtnLeft))
	assert.Equal(t, puzzle.StatusValueSolved, b.StatusValue())

	// Terminal positions accept no further play input.
	assert.Equal(t, puzzle.KeyNoEffect, b.ProcessKey(5, 5, puzzle.BtnLeft))
}

func TestHardMode_MoveLimitLoses(t *testing.T) {
	b, _ := newTestBackend(t)
	require.Empty(t, b.SetGameID("2x2h:00"))
	b.NewGame()

	limit := b.active.moveLimit()
	require.Equal(t, 12, limit)

	// Toggle the same lamp until the limit; the position is never solved.
	for i := 0; i < limit; i++ {
		require.Equal(t, puzzle.KeySomeEffect, b.ProcessKey(5, 5, puzzle.BtnLeft))
	}
	assert.Equal(t, puzzle.StatusValueLost, b.StatusValue())

	// Undo escapes the loss.
	require.True(t, b.Undo())
	assert.Equal(t, puzzle.StatusValueOngoing, b.StatusValue())
}

func TestTick_BurnsDownFlash(t *testing.T) {
	b, log := newTestBackend(t)
	startGame(t, b)
	require.Empty(t, b.Solve())
	require.Equal(t, 1, log.activate)

	b.Tick(0.1)
	assert.Equal(t, 0, log.deactivate)
	b.Tick(0.2)
	assert.Equal(t, 1, log.deactivate)

	// Further ticks are inert.
	b.Tick(1)
	assert.Equal(t, 1, log.deactivate)
}

func TestSerialize_RoundTrip(t *testing.T) {
	b, _ := newTestBackend(t)
	startGame(t, b)
	b.ProcessKey(5, 5, puzzle.BtnLeft)
	b.ProcessKey(40, 5, puzzle.BtnLeft)
	require.True(t, b.Undo())

	data := b.Serialize()

	restored, _ := newTestBackend(t)
	require.Empty(t, restored.Deserialize(data))

	assert.Equal(t, b.GameID(), restored.GameID())
	cur, total := restored.MoveCounts()
	assert.Equal(t, 1, cur)
	assert.Equal(t, 2, total)
	assert.True(t, restored.CanRedo())
}

func TestDeserialize_RejectsCorrupt(t *testing.T) {
	b, _ := newTestBackend(t)

	assert.NotEmpty(t, b.Deserialize([]byte("junk")))
	assert.NotEmpty(t, b.Deserialize([]byte(`{"params":"3x3","start":[true],"states":[],"pos":0}`)))
	assert.NotEmpty(t, b.Deserialize([]byte(`{"params":"0x0","start":[],"states":[],"pos":0}`)))
}

func TestCustomValues_FirstInvalidRejects(t *testing.T) {
	b, _ := newTestBackend(t)

	require.Empty(t, b.SetCustomValues(puzzle.Values{"width": "5", "height": "4", "mode": 1}))
	assert.Equal(t, "5x4h", b.Params())

	assert.NotEmpty(t, b.SetCustomValues(puzzle.Values{"width": "1"}))
	assert.Equal(t, "5x4h", b.Params(), "rejected update leaves params untouched")

	assert.NotEmpty(t, b.SetCustomValues(puzzle.Values{"mode": 9}))
	assert.NotEmpty(t, b.SetCustomValues(puzzle.Values{"width": 7}), "dimensions are strings")
}

func TestPrefs_RoundTrip(t *testing.T) {
	b, _ := newTestBackend(t)
	require.Empty(t, b.SetPrefs(puzzle.Values{"show-coords": true, "flash-style": 1}))

	blob := b.MarshalPrefs()

	other, _ := newTestBackend(t)
	require.Empty(t, other.UnmarshalPrefs(blob))
	assert.Equal(t, puzzle.Values{"show-coords": true, "flash-style": 1}, other.Prefs())

	assert.NotEmpty(t, other.UnmarshalPrefs([]byte("garbage")))
}

func TestSize_ShrinksToFit(t *testing.T) {
	b, _ := newTestBackend(t)
	startGame(t, b)

	w, h := b.Size(1000, 1000, false, 1)
	assert.Equal(t, 96, w)
	assert.Equal(t, 96, h)

	w, h = b.Size(50, 50, false, 1)
	assert.LessOrEqual(t, w, 50)
	assert.LessOrEqual(t, h, 50)
	assert.Equal(t, w, h)

	// User-requested sizes are honored even when they overflow.
	w, _ = b.Size(50, 50, true, 2)
	assert.Equal(t, 192, w)
}
