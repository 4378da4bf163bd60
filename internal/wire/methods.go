package wire

import "github.com/oxleaf/parlour/internal/puzzle"

// Method names for the worker surface. Create must be the first request on
// a fresh connection; Exit is the last.
const (
	MethodCreate        = "create"
	MethodNewGame       = "newGame"
	MethodNewGameFromID = "newGameFromId"
	MethodRestartGame   = "restartGame"
	MethodUndo          = "undo"
	MethodRedo          = "redo"
	MethodSolve         = "solve"
	MethodGetParams     = "getParams"
	MethodSetParams     = "setParams"
	MethodGetPresets    = "getPresets"
	MethodCustomConfig  = "getCustomConfig"
	MethodCustomParams  = "getCustomParams"
	MethodSetCustom     = "setCustomParams"
	MethodPrefsConfig   = "getPrefsConfig"
	MethodGetPrefs      = "getPreferences"
	MethodSetPrefs      = "setPreferences"
	MethodSavePrefs     = "savePreferences"
	MethodLoadPrefs     = "loadPreferences"
	MethodProcessKey    = "processKey"
	MethodProcessMouse  = "processMouse"
	MethodSaveGame      = "saveGame"
	MethodLoadGame      = "loadGame"
	MethodSize          = "size"
	MethodRedraw        = "redraw"
	MethodRequestKeys   = "requestKeys"
	MethodExit          = "exit"
)

// CreateParams opens a session: instantiate the backend for PuzzleID.
type CreateParams struct {
	PuzzleID string `json:"puzzleId"`
}

// CreateResult carries the static attributes of the created backend.
type CreateResult struct {
	Meta puzzle.Meta `json:"meta"`
}

// ErrStringResult carries an in-band optional error string; "" is success.
type ErrStringResult struct {
	Err string `json:"err,omitempty"`
}

// IDParams carries an encoded game id.
type IDParams struct {
	ID string `json:"id"`
}

// ParamsResult returns the encoded pending params.
type ParamsResult struct {
	Params string `json:"params"`
}

// EncodedParams carries encoded params to apply.
type EncodedParams struct {
	Params string `json:"params"`
}

// PresetsResult returns the preset menu.
type PresetsResult struct {
	Presets []puzzle.Preset `json:"presets"`
}

// ConfigResult returns a configuration description.
type ConfigResult struct {
	Config puzzle.Config `json:"config"`
}

// ValuesResult returns configuration values.
type ValuesResult struct {
	Values puzzle.Values `json:"values"`
}

// ValuesParams carries configuration values to apply.
type ValuesParams struct {
	Values puzzle.Values `json:"values"`
}

// BytesParams carries an opaque binary payload (base64 in JSON).
type BytesParams struct {
	Data []byte `json:"data"`
}

// BytesResult returns an opaque binary payload.
type BytesResult struct {
	Data []byte `json:"data"`
}

// KeyParams is a forwarded keyboard input.
type KeyParams struct {
	Code int `json:"code"`
}

// MouseParams is a forwarded mouse input.
type MouseParams struct {
	Point  puzzle.Point `json:"point"`
	Button int          `json:"button"`
}

// UsedResult reports whether an input event was consumed.
type UsedResult struct {
	Used bool `json:"used"`
}

// SizeParams asks the backend to compute its drawing size.
type SizeParams struct {
	MaxSize    puzzle.Size `json:"maxSize"`
	IsUserSize bool        `json:"isUserSize"`
	DPR        float64     `json:"dpr"`
}

// SizeResult returns the computed drawing size.
type SizeResult struct {
	Size puzzle.Size `json:"size"`
}

// KeysResult returns the requested on-screen key labels.
type KeysResult struct {
	Keys []puzzle.KeyLabel `json:"keys"`
}
