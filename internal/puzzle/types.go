package puzzle

// Status describes the state of the active game as reported by the backend.
type Status string

const (
	StatusOngoing        Status = "ongoing"
	StatusSolved         Status = "solved"
	StatusSolvedWithHelp Status = "solved-with-help"
	StatusLost           Status = "lost"
)

// Raw backend status values, mapped to Status by StatusFromValue.
// Negative means lost, zero means ongoing, positive means solved;
// StatusValueSolvedAssisted distinguishes solves the backend performed
// itself (via Solve) from solves the player earned.
const (
	StatusValueLost           = -1
	StatusValueOngoing        = 0
	StatusValueSolved         = 1
	StatusValueSolvedAssisted = 2
)

// StatusFromValue maps a raw backend status value to a Status.
func StatusFromValue(v int) Status {
	switch {
	case v < 0:
		return StatusLost
	case v == StatusValueSolvedAssisted:
		return StatusSolvedWithHelp
	case v > 0:
		return StatusSolved
	default:
		return StatusOngoing
	}
}

// Meta carries the static attributes of a puzzle type. Immutable for the
// lifetime of a session.
type Meta struct {
	Name             string `json:"name"`
	CanConfigure     bool   `json:"canConfigure"`
	CanSolve         bool   `json:"canSolve"`
	NeedsRightButton bool   `json:"needsRightButton"`
	IsTimed          bool   `json:"isTimed"`
	WantsStatusbar   bool   `json:"wantsStatusbar"`
}

// KeyResult reports what a backend did with an input event.
type KeyResult int

const (
	// KeyUnused means the backend does not use this key at all.
	KeyUnused KeyResult = iota
	// KeyNoEffect means the backend wanted the key but it changed nothing.
	KeyNoEffect
	// KeySomeEffect means the key changed game state.
	KeySomeEffect
)

// Input button codes. Mouse buttons and their drag/release variants occupy
// a reserved range so IsMouseDrag can identify them; everything below the
// range is a keyboard code (rune value or one of the cursor/soft buttons).
const (
	BtnLeft = 0x0200 + iota
	BtnMiddle
	BtnRight
	BtnLeftDrag
	BtnMiddleDrag
	BtnRightDrag
	BtnLeftRelease
	BtnMiddleRelease
	BtnRightRelease
)

// Soft buttons delivered through the key path.
const (
	BtnUndo = 0x0100 + iota
	BtnRedo
	BtnCursorUp
	BtnCursorDown
	BtnCursorLeft
	BtnCursorRight
	BtnSelect
)

// IsMouseDrag reports whether button is a mouse-drag event.
func IsMouseDrag(button int) bool {
	return button >= BtnLeftDrag && button <= BtnRightDrag
}

// IsMouse reports whether button is any mouse event.
func IsMouse(button int) bool {
	return button >= BtnLeft && button <= BtnRightRelease
}

// Point is a position on the drawing target, in device pixels.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is a drawing-target extent, in device pixels.
type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// KeyLabel describes an on-screen key the current game wants offered.
type KeyLabel struct {
	Label  string `json:"label"`
	Button int    `json:"button"`
}

// Preset is one entry of a puzzle's preset menu.
type Preset struct {
	Title   string   `json:"title"`
	Params  string   `json:"params"`
	Submenu []Preset `json:"submenu,omitempty"`
}

// ItemType discriminates configuration item kinds.
type ItemType string

const (
	ItemString  ItemType = "string"
	ItemBoolean ItemType = "boolean"
	ItemChoices ItemType = "choices"
)

// ConfigItem describes one configurable field of a puzzle.
type ConfigItem struct {
	Name    string   `json:"name"`
	Type    ItemType `json:"type"`
	Choices []string `json:"choices,omitempty"`
}

// Config describes a configuration surface (custom params or preferences).
// Items are keyed by a stable slug id.
type Config struct {
	Title string                `json:"title"`
	Items map[string]ConfigItem `json:"items"`
}

// Values holds configuration values keyed by item slug. Value types are
// string, bool, or int (choice index). JSON decoding produces float64 for
// numbers; use ChoiceIndex when reading a choices value.
type Values map[string]any

// ChoiceIndex reads a choices value, tolerating the float64 produced by
// JSON decoding.
func ChoiceIndex(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
