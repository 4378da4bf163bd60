package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/oxleaf/parlour/internal/history"
	"github.com/oxleaf/parlour/internal/puzzle"
	"github.com/oxleaf/parlour/internal/wire"
)

// Cells groups the independently observable session mirrors. Each is
// updated only from worker notifications; the facade never computes game
// state itself.
type Cells struct {
	Status      Cell[puzzle.Status]
	CurrentMove Cell[int]
	TotalMoves  Cell[int]
	CanUndo     Cell[bool]
	CanRedo     Cell[bool]

	// Params is the pending new-game configuration; CurrentParams describes
	// the active game, derived from its id.
	Params        Cell[string]
	CurrentParams Cell[string]
	CurrentGameID Cell[string]
	RandomSeed    Cell[string]

	StatusbarText  Cell[string]
	GeneratingGame Cell[bool]
}

// Options configures session creation.
type Options struct {
	// Transport connects to the worker host. Required.
	Transport Transport

	// Logger receives precondition warnings and transport noise.
	// Defaults to slog.Default().
	Logger *slog.Logger
}

// Session drives one puzzle instance running in an isolated worker. It is
// the only object the rest of the application talks to: every call is
// forwarded over the wire, and all observable state lives in State,
// updated from worker notifications in arrival order.
//
// Mutating calls must be awaited one at a time; the session does not
// pipeline them.
type Session struct {
	State Cells

	puzzleID   string
	meta       puzzle.Meta
	autosaveID string
	logger     *slog.Logger

	client    *client
	transport Transport

	ckMu        sync.Mutex
	checkpoints *history.Checkpoints

	timerMu   sync.Mutex
	timerDone chan struct{}

	hasGame atomic.Bool
	sized   atomic.Bool
	deleted atomic.Bool
}

// Create spawns a worker host for puzzleID, performs the create handshake,
// and returns a ready session. An unknown puzzle id or a worker that fails
// to start is fatal: the transport is torn down and an error returned.
func Create(ctx context.Context, puzzleID string, opts Options) (*Session, error) {
	if opts.Transport == nil {
		return nil, fmt.Errorf("create session: no transport")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		puzzleID:    puzzleID,
		autosaveID:  uuid.Must(uuid.NewV7()).String(),
		logger:      logger,
		transport:   opts.Transport,
		checkpoints: history.New(),
		timerDone:   closedChan(),
	}
	s.State.Status.value = puzzle.StatusOngoing

	r, w, err := opts.Transport.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("start worker: %w", err)
	}
	s.client = newClient(w, s.applyPush, logger)
	go s.client.readLoop(r)

	var res wire.CreateResult
	if err := s.client.call(ctx, wire.MethodCreate, wire.CreateParams{PuzzleID: puzzleID}, &res); err != nil {
		s.client.close()
		if terr := opts.Transport.Terminate(); terr != nil {
			logger.Warn("worker terminate after failed create", "error", terr)
		}
		return nil, fmt.Errorf("create session %q: %w", puzzleID, err)
	}
	s.meta = res.Meta
	return s, nil
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// PuzzleID returns the puzzle type identifier.
func (s *Session) PuzzleID() string { return s.puzzleID }

// Meta returns the static attributes fetched at creation.
func (s *Session) Meta() puzzle.Meta { return s.meta }

// AutosaveID is this session's autosave filename: time-sortable and unique
// per session, so concurrent sessions of one puzzle never clobber each
// other's autosaves.
func (s *Session) AutosaveID() string { return s.autosaveID }

// Status returns the current game status.
func (s *Session) Status() puzzle.Status { return s.State.Status.Get() }

// CurrentGameID returns the encoded id of the active game.
func (s *Session) CurrentGameID() string { return s.State.CurrentGameID.Get() }

// TimerComplete returns a channel that is closed when the puzzle's
// internal timer next deactivates. While no timer is running the returned
// channel is already closed.
func (s *Session) TimerComplete() <-chan struct{} {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	return s.timerDone
}

// applyPush runs on the client read loop, before any later response is
// delivered, so mirrors are current by the time the triggering call
// returns.
func (s *Session) applyPush(p *wire.Push) {
	switch p.Method {
	case wire.MethodTimerActive:
		s.timerMu.Lock()
		select {
		case <-s.timerDone:
			s.timerDone = make(chan struct{})
		default:
			// Already pending; activate is idempotent.
		}
		s.timerMu.Unlock()
	case wire.MethodTimerInactive:
		s.timerMu.Lock()
		select {
		case <-s.timerDone:
		default:
			close(s.timerDone)
		}
		s.timerMu.Unlock()
	case wire.MethodNotify:
		note, err := puzzle.DecodeNote(p.Params)
		if err != nil {
			s.logger.Warn("dropping bad notification", "error", err)
			return
		}
		s.applyNote(note)
	default:
		s.logger.Warn("unknown push from worker", "method", p.Method)
	}
}

func (s *Session) applyNote(note puzzle.Note) {
	switch n := note.(type) {
	case puzzle.GameIDChange:
		s.State.CurrentGameID.set(n.CurrentGameID)
		s.State.RandomSeed.set(n.RandomSeed)
		s.State.CurrentParams.set(paramsOfGameID(n.CurrentGameID))
	case puzzle.GameStateChange:
		// Purge before the totalMoves mirror moves: the purge keys off the
		// incoming count, and stale checkpoints must never be observable
		// alongside the new bounds.
		s.ckMu.Lock()
		s.checkpoints.Purge(n.TotalMoves)
		s.ckMu.Unlock()
		s.State.Status.set(n.Status)
		s.State.CurrentMove.set(n.CurrentMove)
		s.State.TotalMoves.set(n.TotalMoves)
		s.State.CanUndo.set(n.CanUndo)
		s.State.CanRedo.set(n.CanRedo)
	case puzzle.ParamsChange:
		s.State.Params.set(n.Params)
	case puzzle.StatusBarChange:
		s.State.StatusbarText.set(n.StatusBarText)
	}
}

// paramsOfGameID extracts the params prefix of an encoded game id:
// everything before the first ':' (description) or '#' (seed).
func paramsOfGameID(id string) string {
	if i := strings.IndexAny(id, ":#"); i >= 0 {
		return id[:i]
	}
	return id
}

// NewGame starts a fresh game with the pending params. The generatingGame
// flag is raised for the duration; mirrors are updated before return.
func (s *Session) NewGame(ctx context.Context) error {
	s.State.GeneratingGame.set(true)
	err := s.client.call(ctx, wire.MethodNewGame, nil, nil)
	s.State.GeneratingGame.set(false)
	if err != nil {
		return err
	}
	s.hasGame.Store(true)
	return nil
}

// NewGameFromID starts the game encoded by id. Returns a user-facing
// error string for malformed ids ("" = success); the Go error covers
// transport failures only.
func (s *Session) NewGameFromID(ctx context.Context, id string) (string, error) {
	s.State.GeneratingGame.set(true)
	var res wire.ErrStringResult
	err := s.client.call(ctx, wire.MethodNewGameFromID, wire.IDParams{ID: id}, &res)
	s.State.GeneratingGame.set(false)
	if err != nil {
		return "", err
	}
	if res.Err == "" {
		s.hasGame.Store(true)
	}
	return res.Err, nil
}

// RestartGame returns the current game to its initial position.
func (s *Session) RestartGame(ctx context.Context) error {
	return s.client.call(ctx, wire.MethodRestartGame, nil, nil)
}

// Undo steps one move back.
func (s *Session) Undo(ctx context.Context) error {
	return s.client.call(ctx, wire.MethodUndo, nil, nil)
}

// Redo steps one move forward.
func (s *Session) Redo(ctx context.Context) error {
	return s.client.call(ctx, wire.MethodRedo, nil, nil)
}

// Solve asks the puzzle to solve itself. Returns an error string when the
// puzzle cannot ("" = success).
func (s *Session) Solve(ctx context.Context) (string, error) {
	var res wire.ErrStringResult
	if err := s.client.call(ctx, wire.MethodSolve, nil, &res); err != nil {
		return "", err
	}
	return res.Err, nil
}

// GetParams fetches the pending new-game params and refreshes the mirror.
func (s *Session) GetParams(ctx context.Context) (string, error) {
	var res wire.ParamsResult
	if err := s.client.call(ctx, wire.MethodGetParams, nil, &res); err != nil {
		return "", err
	}
	s.State.Params.set(res.Params)
	return res.Params, nil
}

// SetParams applies an encoded params string for the next game. Returns an
// error string on invalid input.
func (s *Session) SetParams(ctx context.Context, encoded string) (string, error) {
	var res wire.ErrStringResult
	if err := s.client.call(ctx, wire.MethodSetParams, wire.EncodedParams{Params: encoded}, &res); err != nil {
		return "", err
	}
	return res.Err, nil
}

// Presets returns the puzzle's preset menu.
func (s *Session) Presets(ctx context.Context) ([]puzzle.Preset, error) {
	var res wire.PresetsResult
	if err := s.client.call(ctx, wire.MethodGetPresets, nil, &res); err != nil {
		return nil, err
	}
	return res.Presets, nil
}

// CustomConfig returns the custom-params configuration description.
func (s *Session) CustomConfig(ctx context.Context) (puzzle.Config, error) {
	var res wire.ConfigResult
	if err := s.client.call(ctx, wire.MethodCustomConfig, nil, &res); err != nil {
		return puzzle.Config{}, err
	}
	return res.Config, nil
}

// CustomParams returns the current custom-params values keyed by slug.
func (s *Session) CustomParams(ctx context.Context) (puzzle.Values, error) {
	var res wire.ValuesResult
	if err := s.client.call(ctx, wire.MethodCustomParams, nil, &res); err != nil {
		return nil, err
	}
	return res.Values, nil
}

// SetCustomParams applies custom-params values. Returns an error string on
// invalid input.
func (s *Session) SetCustomParams(ctx context.Context, values puzzle.Values) (string, error) {
	var res wire.ErrStringResult
	if err := s.client.call(ctx, wire.MethodSetCustom, wire.ValuesParams{Values: values}, &res); err != nil {
		return "", err
	}
	return res.Err, nil
}

// PrefsConfig returns the preferences configuration description.
func (s *Session) PrefsConfig(ctx context.Context) (puzzle.Config, error) {
	var res wire.ConfigResult
	if err := s.client.call(ctx, wire.MethodPrefsConfig, nil, &res); err != nil {
		return puzzle.Config{}, err
	}
	return res.Config, nil
}

// Preferences returns the current preference values keyed by slug.
func (s *Session) Preferences(ctx context.Context) (puzzle.Values, error) {
	var res wire.ValuesResult
	if err := s.client.call(ctx, wire.MethodGetPrefs, nil, &res); err != nil {
		return nil, err
	}
	return res.Values, nil
}

// SetPreferences applies preference values. Returns an error string on
// invalid input.
func (s *Session) SetPreferences(ctx context.Context, values puzzle.Values) (string, error) {
	var res wire.ErrStringResult
	if err := s.client.call(ctx, wire.MethodSetPrefs, wire.ValuesParams{Values: values}, &res); err != nil {
		return "", err
	}
	return res.Err, nil
}

// SavePreferences serializes the current preferences to an opaque blob.
func (s *Session) SavePreferences(ctx context.Context) ([]byte, error) {
	var res wire.BytesResult
	if err := s.client.call(ctx, wire.MethodSavePrefs, nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// LoadPreferences restores preferences from a blob produced by
// SavePreferences. Returns an error string for undecodable blobs.
func (s *Session) LoadPreferences(ctx context.Context, data []byte) (string, error) {
	var res wire.ErrStringResult
	if err := s.client.call(ctx, wire.MethodLoadPrefs, wire.BytesParams{Data: data}, &res); err != nil {
		return "", err
	}
	return res.Err, nil
}

// ProcessKey forwards a keyboard input. Reports whether it was consumed.
func (s *Session) ProcessKey(ctx context.Context, code int) (bool, error) {
	var res wire.UsedResult
	if err := s.client.call(ctx, wire.MethodProcessKey, wire.KeyParams{Code: code}, &res); err != nil {
		return false, err
	}
	return res.Used, nil
}

// ProcessMouse forwards a mouse input. Reports whether it was consumed.
func (s *Session) ProcessMouse(ctx context.Context, pt puzzle.Point, button int) (bool, error) {
	var res wire.UsedResult
	if err := s.client.call(ctx, wire.MethodProcessMouse, wire.MouseParams{Point: pt, Button: button}, &res); err != nil {
		return false, err
	}
	return res.Used, nil
}

// SaveGame serializes the active game to an opaque blob. The bytes cross
// the worker boundary as a copy; there is no shared address space to move
// them through.
func (s *Session) SaveGame(ctx context.Context) ([]byte, error) {
	var res wire.BytesResult
	if err := s.client.call(ctx, wire.MethodSaveGame, nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// LoadGame restores a game from a blob produced by SaveGame. Returns an
// error string for blobs the puzzle rejects ("" = success).
func (s *Session) LoadGame(ctx context.Context, data []byte) (string, error) {
	var res wire.ErrStringResult
	if err := s.client.call(ctx, wire.MethodLoadGame, wire.BytesParams{Data: data}, &res); err != nil {
		return "", err
	}
	if res.Err == "" {
		s.hasGame.Store(true)
	}
	return res.Err, nil
}

// RequestKeys returns the on-screen key labels the puzzle wants shown.
func (s *Session) RequestKeys(ctx context.Context) ([]puzzle.KeyLabel, error) {
	var res wire.KeysResult
	if err := s.client.call(ctx, wire.MethodRequestKeys, nil, &res); err != nil {
		return nil, err
	}
	return res.Keys, nil
}

// Size computes the drawing size for the given bounds. Calling it before a
// game exists is a logged no-op that returns maxSize unchanged.
func (s *Session) Size(ctx context.Context, maxSize puzzle.Size, isUserSize bool, dpr float64) (puzzle.Size, error) {
	if !s.hasGame.Load() {
		s.logger.Warn("size called before a game exists", "puzzle", s.puzzleID)
		return maxSize, nil
	}
	var res wire.SizeResult
	if err := s.client.call(ctx, wire.MethodSize, wire.SizeParams{MaxSize: maxSize, IsUserSize: isUserSize, DPR: dpr}, &res); err != nil {
		return puzzle.Size{}, err
	}
	s.sized.Store(true)
	return res.Size, nil
}

// Redraw repaints the attached drawing target. Calling it before Size has
// completed at least once is a logged no-op.
func (s *Session) Redraw(ctx context.Context) error {
	if !s.sized.Load() {
		s.logger.Warn("redraw called before size", "puzzle", s.puzzleID)
		return nil
	}
	return s.client.call(ctx, wire.MethodRedraw, nil, nil)
}

// Delete tears the session down: posts an exit request, abandons in-flight
// calls, and terminates the worker. It never waits on the worker, so a
// wedged host cannot stall teardown. Must be called exactly once; further
// calls return ErrSessionDeleted.
func (s *Session) Delete(ctx context.Context) error {
	if !s.deleted.CompareAndSwap(false, true) {
		return ErrSessionDeleted
	}
	// Fire-and-forget: a healthy host exits on receipt, and Terminate
	// reclaims the worker either way. The send runs off-thread because a
	// wedged host may not even be reading; Terminate closing the stream
	// unblocks it.
	go func() {
		if err := s.client.post(wire.MethodExit); err != nil {
			s.logger.Debug("exit request not sent", "error", err)
		}
	}()
	s.client.close()
	if err := s.transport.Terminate(); err != nil {
		return fmt.Errorf("terminate worker: %w", err)
	}
	return nil
}
