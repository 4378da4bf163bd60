package session

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxleaf/parlour/internal/host"
	"github.com/oxleaf/parlour/internal/puzzle"
	"github.com/oxleaf/parlour/internal/puzzle/blackbox"
	"github.com/oxleaf/parlour/internal/wire"
)

// emptyGameID starts a fully deterministic 3x3 game with no lit lamps:
// every toggle is a move and nothing solves by accident.
const emptyGameID = "3x3:0000"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestSession runs a real host over in-memory pipes with the blackbox
// backend and returns a ready session.
func newTestSession(t *testing.T) *Session {
	t.Helper()

	reg := puzzle.NewRegistry()
	blackbox.Register(reg)
	logger := quietLogger()
	h := host.New(reg, logger)

	s, err := Create(context.Background(), blackbox.ID, Options{
		Transport: &PipeTransport{Serve: h.Serve},
		Logger:    logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Delete(context.Background()) // already-deleted is fine here
	})
	return s
}

// clickAt toggles the lamp at grid cell (cx, cy) via a left click.
func clickAt(t *testing.T, s *Session, cx, cy int) {
	t.Helper()
	used, err := s.ProcessMouse(context.Background(), puzzle.Point{X: cx*32 + 5, Y: cy*32 + 5}, puzzle.BtnLeft)
	require.NoError(t, err)
	require.True(t, used)
}

func startEmptyGame(t *testing.T, s *Session) {
	t.Helper()
	errstr, err := s.NewGameFromID(context.Background(), emptyGameID)
	require.NoError(t, err)
	require.Empty(t, errstr)
}

func TestCreate_FetchesMeta(t *testing.T) {
	s := newTestSession(t)

	meta := s.Meta()
	assert.Equal(t, "Black Box", meta.Name)
	assert.True(t, meta.CanSolve)
	assert.True(t, meta.WantsStatusbar)
	assert.Equal(t, blackbox.ID, s.PuzzleID())
	assert.NotEmpty(t, s.AutosaveID())
}

func TestCreate_UnknownPuzzleIsFatal(t *testing.T) {
	reg := puzzle.NewRegistry()
	h := host.New(reg, quietLogger())

	_, err := Create(context.Background(), "no-such-puzzle", Options{
		Transport: &PipeTransport{Serve: h.Serve},
		Logger:    quietLogger(),
	})
	require.Error(t, err)

	var ee *EngineError
	assert.ErrorAs(t, err, &ee)
}

func TestCreate_ConstructionParamsArrive(t *testing.T) {
	s := newTestSession(t)

	// The backend announced its default params during construction; the
	// buffered notification lands right after the create response.
	params, err := s.GetParams(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3x3", params)
	assert.Equal(t, "3x3", s.State.Params.Get())
}

// Mirrors must be current the moment a mutating call returns: the host
// writes notifications before the response, and the client applies pushes
// before resolving it.
func TestMirrors_CurrentOnReturn(t *testing.T) {
	s := newTestSession(t)
	startEmptyGame(t, s)

	assert.Equal(t, emptyGameID, s.State.CurrentGameID.Get())
	assert.Equal(t, "3x3", s.State.CurrentParams.Get())
	assert.Empty(t, s.State.RandomSeed.Get(), "descriptive ids carry no seed")
	assert.Equal(t, puzzle.StatusOngoing, s.Status())
	assert.Equal(t, 0, s.State.CurrentMove.Get())
	assert.Equal(t, 0, s.State.TotalMoves.Get())
	assert.False(t, s.State.CanUndo.Get())

	clickAt(t, s, 0, 0)
	assert.Equal(t, 1, s.State.CurrentMove.Get())
	assert.Equal(t, 1, s.State.TotalMoves.Get())
	assert.True(t, s.State.CanUndo.Get())
	assert.False(t, s.State.CanRedo.Get())
	assert.Equal(t, "Moves: 1/1", s.State.StatusbarText.Get())
}

func TestGeneratingGameFlag(t *testing.T) {
	s := newTestSession(t)

	var seen []bool
	cancel := s.State.GeneratingGame.Subscribe(func(v bool) {
		seen = append(seen, v)
	})
	defer cancel()

	require.NoError(t, s.NewGame(context.Background()))
	assert.Equal(t, []bool{true, false}, seen)
	assert.NotEmpty(t, s.State.CurrentGameID.Get())
	assert.NotEmpty(t, s.State.RandomSeed.Get(), "generated games carry their seed")
}

func TestScenario_MoveCheckpointUndoGoTo(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()
	startEmptyGame(t, s)

	clickAt(t, s, 0, 0)
	clickAt(t, s, 1, 0)
	s.AddCheckpoint()
	assert.Equal(t, []int{2}, s.Checkpoints())

	clickAt(t, s, 2, 0)
	require.Equal(t, 3, s.State.CurrentMove.Get())

	require.NoError(t, s.Undo(ctx))
	require.NoError(t, s.Undo(ctx))
	assert.Equal(t, 1, s.State.CurrentMove.Get())
	assert.Equal(t, 3, s.State.TotalMoves.Get())
	assert.True(t, s.State.CanRedo.Get())
	assert.Equal(t, []int{2}, s.Checkpoints(), "undo alone never purges")

	require.NoError(t, s.GoToCheckpoint(ctx, 2))
	assert.Equal(t, 2, s.State.CurrentMove.Get())
	assert.Equal(t, 3, s.State.TotalMoves.Get())
}

func TestGoToCheckpoint_OutOfRange(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()
	startEmptyGame(t, s)
	clickAt(t, s, 0, 0)

	require.Error(t, s.GoToCheckpoint(ctx, -1))
	require.Error(t, s.GoToCheckpoint(ctx, 2))
	assert.Equal(t, 1, s.State.CurrentMove.Get(), "failed goto leaves state unchanged")
}

func TestCheckpointPurge_OnBranch(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()
	startEmptyGame(t, s)

	clickAt(t, s, 0, 0)
	clickAt(t, s, 1, 0)
	clickAt(t, s, 2, 0)
	s.AddCheckpointAt(3)
	s.AddCheckpointAt(2)

	// Undo to move 1, then branch: total drops to 2 and the checkpoint at
	// 3 is gone. The one at exactly 2 survives the strict comparison even
	// though the branch replaced that move.
	require.NoError(t, s.Undo(ctx))
	require.NoError(t, s.Undo(ctx))
	clickAt(t, s, 0, 1)

	assert.Equal(t, 2, s.State.TotalMoves.Get())
	assert.Equal(t, []int{2}, s.Checkpoints())
}

func TestSolve_StatusStatusbarTimer(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()
	startEmptyGame(t, s)
	clickAt(t, s, 0, 0)

	select {
	case <-s.TimerComplete():
	default:
		t.Fatal("timer-complete must be resolved while no timer runs")
	}

	errstr, err := s.Solve(ctx)
	require.NoError(t, err)
	require.Empty(t, errstr)

	assert.Equal(t, puzzle.StatusSolvedWithHelp, s.Status())
	assert.Contains(t, s.State.StatusbarText.Get(), "SOLVED")

	// The solved flash activates the host timer; it must deactivate and
	// resolve the signal once the flash burns down.
	select {
	case <-s.TimerComplete():
	case <-time.After(2 * time.Second):
		t.Fatal("timer never completed")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()
	startEmptyGame(t, s)
	clickAt(t, s, 0, 0)
	clickAt(t, s, 1, 0)

	data, err := s.SaveGame(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	clickAt(t, s, 2, 0)
	require.Equal(t, 3, s.State.TotalMoves.Get())

	errstr, err := s.LoadGame(ctx, data)
	require.NoError(t, err)
	require.Empty(t, errstr)

	assert.Equal(t, emptyGameID, s.State.CurrentGameID.Get())
	assert.Equal(t, 2, s.State.CurrentMove.Get())
	assert.Equal(t, 2, s.State.TotalMoves.Get())
}

func TestLoadGame_CorruptIsInBand(t *testing.T) {
	s := newTestSession(t)
	startEmptyGame(t, s)

	errstr, err := s.LoadGame(context.Background(), []byte("not a save"))
	require.NoError(t, err, "a rejected blob is a user-facing condition, not a Go error")
	assert.NotEmpty(t, errstr)
}

func TestErrorStrings(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	errstr, err := s.NewGameFromID(ctx, "bogus")
	require.NoError(t, err)
	assert.NotEmpty(t, errstr)

	errstr, err = s.SetParams(ctx, "99x99")
	require.NoError(t, err)
	assert.NotEmpty(t, errstr)

	startEmptyGame(t, s)
	errstr, err = s.Solve(ctx)
	require.NoError(t, err)
	require.Empty(t, errstr)

	errstr, err = s.Solve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "already solved", errstr)
}

func TestPreconditions_SizeThenRedraw(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	// Size before any game: logged no-op returning the request unchanged.
	size, err := s.Size(ctx, puzzle.Size{W: 200, H: 100}, false, 1)
	require.NoError(t, err)
	assert.Equal(t, puzzle.Size{W: 200, H: 100}, size)

	// Redraw before size: logged no-op.
	require.NoError(t, s.Redraw(ctx))

	startEmptyGame(t, s)
	size, err = s.Size(ctx, puzzle.Size{W: 200, H: 100}, false, 1)
	require.NoError(t, err)
	assert.Equal(t, puzzle.Size{W: 96, H: 96}, size)
	require.NoError(t, s.Redraw(ctx))
}

func TestConfigSurfaces(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	presets, err := s.Presets(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, presets)

	cfg, err := s.CustomConfig(ctx)
	require.NoError(t, err)
	assert.Contains(t, cfg.Items, "width")

	errstr, err := s.SetCustomParams(ctx, puzzle.Values{"width": "4", "height": "4"})
	require.NoError(t, err)
	require.Empty(t, errstr)

	params, err := s.GetParams(ctx)
	require.NoError(t, err)
	assert.Equal(t, "4x4", params)

	keys, err := s.RequestKeys(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, keys)
}

func TestPreferences_RoundTrip(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	errstr, err := s.SetPreferences(ctx, puzzle.Values{"show-coords": true})
	require.NoError(t, err)
	require.Empty(t, errstr)

	blob, err := s.SavePreferences(ctx)
	require.NoError(t, err)

	errstr, err = s.SetPreferences(ctx, puzzle.Values{"show-coords": false})
	require.NoError(t, err)
	require.Empty(t, errstr)

	errstr, err = s.LoadPreferences(ctx, blob)
	require.NoError(t, err)
	require.Empty(t, errstr)

	vals, err := s.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, true, vals["show-coords"])

	errstr, err = s.LoadPreferences(ctx, []byte("garbage"))
	require.NoError(t, err)
	assert.NotEmpty(t, errstr)
}

func TestDelete_ExactlyOnce(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx))
	assert.ErrorIs(t, s.Delete(ctx), ErrSessionDeleted)

	_, err := s.SaveGame(ctx)
	assert.ErrorIs(t, err, ErrSessionDeleted)
}

// wedgedServe answers the create handshake and then ignores every further
// request, like a host stuck in puzzle code.
func wedgedServe(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := wire.NewReader(r)
	writer := wire.NewWriter(w)
	for {
		line, err := reader.ReadLine()
		if err != nil {
			return err
		}
		msg, err := wire.Decode(line)
		if err != nil || msg.Request == nil || msg.Request.Method != wire.MethodCreate {
			continue
		}
		result, err := json.Marshal(wire.CreateResult{Meta: puzzle.Meta{Name: "Wedged"}})
		if err != nil {
			return err
		}
		if err := writer.Write(&wire.Response{ID: msg.Request.ID, Result: result}); err != nil {
			return err
		}
	}
}

type trackingTransport struct {
	PipeTransport
	terminated atomic.Bool
}

func (t *trackingTransport) Terminate() error {
	t.terminated.Store(true)
	return t.PipeTransport.Terminate()
}

// Teardown must not depend on the worker answering anything.
func TestDelete_WedgedWorkerCannotStallTeardown(t *testing.T) {
	tr := &trackingTransport{PipeTransport: PipeTransport{Serve: wedgedServe}}
	s, err := Create(context.Background(), blackbox.ID, Options{
		Transport: tr,
		Logger:    quietLogger(),
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Delete(context.Background()) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("delete blocked waiting on an unresponsive worker")
	}
	assert.True(t, tr.terminated.Load(), "worker was terminated")
	assert.ErrorIs(t, s.Delete(context.Background()), ErrSessionDeleted)
}
