package puzzle

// Hooks are the callbacks a backend uses to signal its host out of band.
// All fields must be non-nil when a backend is constructed; hosts install
// them before calling the factory. Backends may invoke hooks synchronously
// from inside any method, including the factory itself.
type Hooks struct {
	// ParamsChanged signals that the pending new-game params changed.
	ParamsChanged func()
	// GameIDChanged signals that the active game's identity changed.
	GameIDChanged func()
	// StatusBar pushes new status bar text.
	StatusBar func(text string)
	// ActivateTimer asks the host to start delivering Tick calls.
	ActivateTimer func()
	// DeactivateTimer asks the host to stop delivering Tick calls.
	DeactivateTimer func()
}

// normalized replaces nil callbacks with no-ops.
func (h Hooks) normalized() Hooks {
	if h.ParamsChanged == nil {
		h.ParamsChanged = func() {}
	}
	if h.GameIDChanged == nil {
		h.GameIDChanged = func() {}
	}
	if h.StatusBar == nil {
		h.StatusBar = func(string) {}
	}
	if h.ActivateTimer == nil {
		h.ActivateTimer = func() {}
	}
	if h.DeactivateTimer == nil {
		h.DeactivateTimer = func() {}
	}
	return h
}

// Drawer is the drawing target a host attaches to its backend. At most one
// Drawer is attached at a time; Release frees the target's resources and is
// called before a replacement is attached.
type Drawer interface {
	StartDraw()
	Rect(x, y, w, h, colour int)
	Line(x1, y1, x2, y2, colour int)
	Text(x, y, colour int, text string)
	EndDraw()
	Release()
}

// Backend is the native puzzle module. One instance per worker host.
//
// Methods returning string return an optional user-facing error message;
// empty string means success. These are expected conditions (bad params,
// malformed game id, unsolvable state), not defects, so they are carried
// in-band rather than as Go errors.
//
// Backends are not safe for concurrent use; the host serializes all calls.
type Backend interface {
	// Meta returns the static attributes of this puzzle type.
	Meta() Meta

	// NewGame starts a fresh game with the pending params.
	NewGame()
	// RestartGame returns the current game to its initial position.
	RestartGame()
	// SetGameID applies an encoded game id for the next NewGame.
	SetGameID(id string) string
	// Solve solves the current game, if the puzzle supports it.
	Solve() string
	// Undo steps back one move. Reports whether anything changed.
	Undo() bool
	// Redo steps forward one move. Reports whether anything changed.
	Redo() bool
	// ProcessKey delivers an input event at (x, y).
	ProcessKey(x, y, button int) KeyResult

	// MoveCounts returns the current position and length of the move history.
	MoveCounts() (current, total int)
	// StatusValue returns the raw game status (see StatusFromValue).
	StatusValue() int
	CanUndo() bool
	CanRedo() bool
	// GameID returns the encoded identity of the active game.
	GameID() string
	// Seed returns the encoded random seed, or "" for descriptive games.
	Seed() string

	// Params returns the encoded pending new-game params.
	Params() string
	// SetParams decodes and applies encoded params.
	SetParams(encoded string) string
	// Presets returns the preset parameter menu.
	Presets() []Preset
	// CustomConfig describes the custom-params configuration surface.
	CustomConfig() Config
	// CustomValues returns the current custom-params values.
	CustomValues() Values
	// SetCustomValues applies custom-params values; absent keys keep their
	// current value.
	SetCustomValues(v Values) string

	// PrefsConfig describes the preferences configuration surface.
	PrefsConfig() Config
	Prefs() Values
	SetPrefs(v Values) string
	// MarshalPrefs serializes preferences to an opaque blob.
	MarshalPrefs() []byte
	// UnmarshalPrefs restores preferences from a blob.
	UnmarshalPrefs(data []byte) string

	// Serialize snapshots the full game state to an opaque blob.
	Serialize() []byte
	// Deserialize restores a snapshot produced by Serialize.
	Deserialize(data []byte) string

	// RequestKeys returns the on-screen keys the current game wants.
	RequestKeys() []KeyLabel

	// Size computes the drawing size for the given bounds.
	Size(maxW, maxH int, userSize bool, dpr float64) (w, h int)
	// Redraw renders the current state into d.
	Redraw(d Drawer)
	// Tick advances the backend's timer by dt seconds. Only called between
	// ActivateTimer and DeactivateTimer hook invocations.
	Tick(dt float64)
}
