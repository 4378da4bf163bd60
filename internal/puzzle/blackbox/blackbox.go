// Package blackbox implements the "blackbox" puzzle backend: a grid of
// lamps, some lit at the start, where each press toggles a lamp and the
// goal is to light the whole grid. It is deliberately small; it exists to
// exercise the full backend surface (params, presets, preferences, undo
// history, serialization, solve, the flash timer) end to end.
package blackbox

import (
	"encoding/hex"
	"fmt"
	"math/rand"
	"strings"

	"github.com/oxleaf/parlour/internal/puzzle"
)

// ID is the stable puzzle id blackbox registers under.
const ID = "blackbox"

// Register adds the blackbox factory to r.
func Register(r *puzzle.Registry) {
	r.Register(ID, New)
}

const (
	minDim = 2
	maxDim = 16

	// flashSeconds is how long the solved flash runs on the host timer.
	flashSeconds = 0.25

	tileSize = 32
)

// Game modes. Hard mode imposes a move limit; exceeding it loses.
const (
	modeNormal = iota
	modeHard
)

var modeNames = []string{"Normal", "Hard"}

type params struct {
	W, H int
	Mode int
}

func (p params) encode() string {
	s := fmt.Sprintf("%dx%d", p.W, p.H)
	if p.Mode == modeHard {
		s += "h"
	}
	return s
}

func decodeParams(encoded string) (params, string) {
	p := params{}
	s := encoded
	if strings.HasSuffix(s, "h") {
		p.Mode = modeHard
		s = strings.TrimSuffix(s, "h")
	}
	if _, err := fmt.Sscanf(s, "%dx%d", &p.W, &p.H); err != nil {
		return p, fmt.Sprintf("expected WIDTHxHEIGHT, got %q", encoded)
	}
	if p.W < minDim || p.W > maxDim || p.H < minDim || p.H > maxDim {
		return p, fmt.Sprintf("dimensions must be between %d and %d", minDim, maxDim)
	}
	return p, ""
}

// moveLimit returns the hard-mode move budget, or 0 for no limit.
func (p params) moveLimit() int {
	if p.Mode == modeHard {
		return 3 * p.W * p.H
	}
	return 0
}

// state is one position in the move history.
type state struct {
	Lit      []bool `json:"lit"`
	Cursor   int    `json:"cursor"`
	Assisted bool   `json:"assisted"`
}

func (s state) clone() state {
	lit := make([]bool, len(s.Lit))
	copy(lit, s.Lit)
	return state{Lit: lit, Cursor: s.Cursor, Assisted: s.Assisted}
}

func (s state) allLit() bool {
	for _, l := range s.Lit {
		if !l {
			return false
		}
	}
	return true
}

type prefs struct {
	ShowCoords bool
	FlashStyle int
}

var flashStyleNames = []string{"Pulse", "Sweep"}

// Backend is the blackbox native module.
type Backend struct {
	hooks puzzle.Hooks

	params params // pending new-game params
	active params // params of the active game
	seed   int64
	start  []bool // initial lit pattern of the active game

	// Pending game identity applied by the next NewGame, set by SetGameID.
	pendingStart []bool
	pendingSeed  int64

	states []state
	pos    int // index into states; currentMove == pos

	prefs prefs

	flashRemaining float64
	rng            *rand.Rand
	statusText     string
}

// New constructs a blackbox backend. Raises a params-change for the
// defaults, as backends must announce their initial params.
func New(hooks puzzle.Hooks) puzzle.Backend {
	b := &Backend{
		hooks:  hooks,
		params: params{W: 3, H: 3},
		rng:    rand.New(rand.NewSource(rand.Int63())),
	}
	b.hooks.ParamsChanged()
	return b
}

// Meta implements puzzle.Backend.
func (b *Backend) Meta() puzzle.Meta {
	return puzzle.Meta{
		Name:           "Black Box",
		CanConfigure:   true,
		CanSolve:       true,
		IsTimed:        false,
		WantsStatusbar: true,
	}
}

func (b *Backend) cells() int { return b.active.W * b.active.H }

// NewGame implements puzzle.Backend. Honors any identity installed by
// SetGameID; otherwise generates a fresh seed.
func (b *Backend) NewGame() {
	b.active = b.params
	switch {
	case b.pendingStart != nil:
		b.start = b.pendingStart
		b.seed = 0
		b.pendingStart = nil
	case b.pendingSeed != 0:
		b.seed = b.pendingSeed
		b.start = b.generate(b.seed)
		b.pendingSeed = 0
	default:
		b.seed = b.rng.Int63()
		b.start = b.generate(b.seed)
	}
	b.resetHistory()
	b.hooks.GameIDChanged()
	b.updateStatusBar()
}

func (b *Backend) resetHistory() {
	lit := make([]bool, len(b.start))
	copy(lit, b.start)
	b.states = []state{{Lit: lit}}
	b.pos = 0
}

// generate produces a starting pattern with at least one unlit lamp.
func (b *Backend) generate(seed int64) []bool {
	rng := rand.New(rand.NewSource(seed))
	n := b.active.W * b.active.H
	lit := make([]bool, n)
	unlit := 0
	for i := range lit {
		lit[i] = rng.Intn(2) == 0
		if !lit[i] {
			unlit++
		}
	}
	if unlit == 0 {
		lit[rng.Intn(n)] = false
	}
	return lit
}

// RestartGame implements puzzle.Backend.
func (b *Backend) RestartGame() {
	b.resetHistory()
	b.updateStatusBar()
}

// SetGameID implements puzzle.Backend. Accepts "WxH[h]:HEXPATTERN" (a
// descriptive id, as produced by GameID) or "WxH[h]#SEED" (a seeded id).
func (b *Backend) SetGameID(id string) string {
	if i := strings.IndexByte(id, ':'); i >= 0 {
		p, errstr := decodeParams(id[:i])
		if errstr != "" {
			return errstr
		}
		pattern, err := hex.DecodeString(id[i+1:])
		if err != nil {
			return "game description is not valid hex"
		}
		if len(pattern) != (p.W*p.H+7)/8 {
			return "game description has the wrong length"
		}
		b.params = p
		b.pendingStart = unpackBits(pattern, p.W*p.H)
		b.pendingSeed = 0
		b.hooks.ParamsChanged()
		return ""
	}
	if i := strings.IndexByte(id, '#'); i >= 0 {
		p, errstr := decodeParams(id[:i])
		if errstr != "" {
			return errstr
		}
		var seed int64
		if _, err := fmt.Sscanf(id[i+1:], "%d", &seed); err != nil {
			return "random seed is not a number"
		}
		b.params = p
		b.pendingStart = nil
		b.pendingSeed = seed
		b.hooks.ParamsChanged()
		return ""
	}
	return "expected PARAMS:DESCRIPTION or PARAMS#SEED"
}
