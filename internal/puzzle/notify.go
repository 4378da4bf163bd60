package puzzle

import (
	"encoding/json"
	"fmt"
)

// Note kinds, used as the "type" discriminator on the wire.
const (
	NoteGameIDChange    = "game-id-change"
	NoteGameStateChange = "game-state-change"
	NoteParamsChange    = "params-change"
	NoteStatusBarChange = "status-bar-change"
)

// Note is one change notification pushed from a worker host to its session.
// It is a closed union of the four variants below; no other notification
// channel exists.
type Note interface {
	noteKind() string
}

// GameIDChange reports that the active game's identity changed
// (new game started, game loaded, or id applied).
type GameIDChange struct {
	Type          string `json:"type"`
	CurrentGameID string `json:"currentGameId"`
	RandomSeed    string `json:"randomSeed,omitempty"`
}

func (GameIDChange) noteKind() string { return NoteGameIDChange }

// GameStateChange reports move-history and status changes.
type GameStateChange struct {
	Type        string `json:"type"`
	Status      Status `json:"status"`
	CurrentMove int    `json:"currentMove"`
	TotalMoves  int    `json:"totalMoves"`
	CanUndo     bool   `json:"canUndo"`
	CanRedo     bool   `json:"canRedo"`
}

func (GameStateChange) noteKind() string { return NoteGameStateChange }

// ParamsChange reports a change to the pending new-game parameters.
type ParamsChange struct {
	Type   string `json:"type"`
	Params string `json:"params"`
}

func (ParamsChange) noteKind() string { return NoteParamsChange }

// StatusBarChange carries new status bar text.
type StatusBarChange struct {
	Type          string `json:"type"`
	StatusBarText string `json:"statusBarText"`
}

func (StatusBarChange) noteKind() string { return NoteStatusBarChange }

// NewGameIDChange builds a tagged GameIDChange.
func NewGameIDChange(gameID, seed string) GameIDChange {
	return GameIDChange{Type: NoteGameIDChange, CurrentGameID: gameID, RandomSeed: seed}
}

// NewGameStateChange builds a tagged GameStateChange.
func NewGameStateChange(status Status, current, total int, canUndo, canRedo bool) GameStateChange {
	return GameStateChange{
		Type:        NoteGameStateChange,
		Status:      status,
		CurrentMove: current,
		TotalMoves:  total,
		CanUndo:     canUndo,
		CanRedo:     canRedo,
	}
}

// NewParamsChange builds a tagged ParamsChange.
func NewParamsChange(params string) ParamsChange {
	return ParamsChange{Type: NoteParamsChange, Params: params}
}

// NewStatusBarChange builds a tagged StatusBarChange.
func NewStatusBarChange(text string) StatusBarChange {
	return StatusBarChange{Type: NoteStatusBarChange, StatusBarText: text}
}

// DecodeNote parses a JSON-encoded notification into its concrete variant.
func DecodeNote(data []byte) (Note, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}

	switch probe.Type {
	case NoteGameIDChange:
		var n GameIDChange
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, fmt.Errorf("decode %s: %w", probe.Type, err)
		}
		return n, nil
	case NoteGameStateChange:
		var n GameStateChange
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, fmt.Errorf("decode %s: %w", probe.Type, err)
		}
		return n, nil
	case NoteParamsChange:
		var n ParamsChange
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, fmt.Errorf("decode %s: %w", probe.Type, err)
		}
		return n, nil
	case NoteStatusBarChange:
		var n StatusBarChange
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, fmt.Errorf("decode %s: %w", probe.Type, err)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("decode notification: unknown type %q", probe.Type)
	}
}
