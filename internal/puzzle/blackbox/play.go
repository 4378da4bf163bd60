package blackbox

import (
	"encoding/hex"
	"fmt"

	"github.com/oxleaf/parlour/internal/puzzle"
)

func (b *Backend) current() *state { return &b.states[b.pos] }

// push appends s after the current position, discarding any redo branch.
func (b *Backend) push(s state) {
	b.states = append(b.states[:b.pos+1], s)
	b.pos++
	b.afterChange()
}

// afterChange runs the per-change bookkeeping: solved-flash activation and
// status bar updates.
func (b *Backend) afterChange() {
	if v := b.StatusValue(); v > 0 && b.flashRemaining == 0 {
		b.flashRemaining = flashSeconds
		b.hooks.ActivateTimer()
	}
	b.updateStatusBar()
}

// StatusValue implements puzzle.Backend. Lost beats solved: the hard-mode
// limit is checked first so a solve on the losing move still loses.
func (b *Backend) StatusValue() int {
	if limit := b.active.moveLimit(); limit > 0 && b.pos >= limit && !b.current().allLit() {
		return puzzle.StatusValueLost
	}
	if b.current().allLit() {
		if b.current().Assisted {
			return puzzle.StatusValueSolvedAssisted
		}
		return puzzle.StatusValueSolved
	}
	return puzzle.StatusValueOngoing
}

// MoveCounts implements puzzle.Backend.
func (b *Backend) MoveCounts() (current, total int) {
	return b.pos, len(b.states) - 1
}

// CanUndo implements puzzle.Backend.
func (b *Backend) CanUndo() bool { return b.pos > 0 }

// CanRedo implements puzzle.Backend.
func (b *Backend) CanRedo() bool { return b.pos < len(b.states)-1 }

// Undo implements puzzle.Backend.
func (b *Backend) Undo() bool {
	if b.pos == 0 {
		return false
	}
	b.pos--
	b.afterChange()
	return true
}

// Redo implements puzzle.Backend.
func (b *Backend) Redo() bool {
	if b.pos >= len(b.states)-1 {
		return false
	}
	b.pos++
	b.afterChange()
	return true
}

// Solve implements puzzle.Backend: lights every lamp, marked assisted.
func (b *Backend) Solve() string {
	if b.current().allLit() {
		return "already solved"
	}
	s := b.current().clone()
	for i := range s.Lit {
		s.Lit[i] = true
	}
	s.Assisted = true
	b.push(s)
	return ""
}

// ProcessKey implements puzzle.Backend. Mouse clicks toggle the lamp under
// the pointer; cursor keys move the cursor; select toggles at the cursor.
func (b *Backend) ProcessKey(x, y, button int) puzzle.KeyResult {
	if terminal := b.StatusValue(); terminal != puzzle.StatusValueOngoing {
		// Terminal positions accept no play input; undo still works via Undo.
		return puzzle.KeyNoEffect
	}

	switch {
	case button == puzzle.BtnLeft:
		cell, ok := b.cellAt(x, y)
		if !ok {
			return puzzle.KeyNoEffect
		}
		return b.toggle(cell)
	case puzzle.IsMouse(button):
		// Drags and non-left buttons are accepted but do nothing here.
		return puzzle.KeyNoEffect
	case button == puzzle.BtnSelect || button == ' ':
		return b.toggle(b.current().Cursor)
	case button == puzzle.BtnCursorUp:
		return b.moveCursor(0, -1)
	case button == puzzle.BtnCursorDown:
		return b.moveCursor(0, 1)
	case button == puzzle.BtnCursorLeft:
		return b.moveCursor(-1, 0)
	case button == puzzle.BtnCursorRight:
		return b.moveCursor(1, 0)
	}
	return puzzle.KeyUnused
}

func (b *Backend) cellAt(x, y int) (int, bool) {
	cx, cy := x/tileSize, y/tileSize
	if cx < 0 || cx >= b.active.W || cy < 0 || cy >= b.active.H {
		return 0, false
	}
	return cy*b.active.W + cx, true
}

func (b *Backend) toggle(cell int) puzzle.KeyResult {
	s := b.current().clone()
	s.Lit[cell] = !s.Lit[cell]
	s.Cursor = cell
	b.push(s)
	return puzzle.KeySomeEffect
}

func (b *Backend) moveCursor(dx, dy int) puzzle.KeyResult {
	cur := b.current().Cursor
	cx, cy := cur%b.active.W+dx, cur/b.active.W+dy
	if cx < 0 || cx >= b.active.W || cy < 0 || cy >= b.active.H {
		return puzzle.KeyNoEffect
	}
	// Cursor motion mutates the current state in place; it is not a move.
	b.current().Cursor = cy*b.active.W + cx
	return puzzle.KeySomeEffect
}

// GameID implements puzzle.Backend: "WxH[h]:HEXPATTERN" over the start state.
func (b *Backend) GameID() string {
	return b.active.encode() + ":" + hex.EncodeToString(packBits(b.start))
}

// Seed implements puzzle.Backend.
func (b *Backend) Seed() string {
	if b.seed == 0 {
		return ""
	}
	return fmt.Sprintf("%d", b.seed)
}

// RequestKeys implements puzzle.Backend.
func (b *Backend) RequestKeys() []puzzle.KeyLabel {
	return []puzzle.KeyLabel{
		{Label: "Toggle", Button: puzzle.BtnSelect},
		{Label: "Undo", Button: puzzle.BtnUndo},
		{Label: "Redo", Button: puzzle.BtnRedo},
	}
}

// Tick implements puzzle.Backend: burns down the solved flash.
func (b *Backend) Tick(dt float64) {
	if b.flashRemaining == 0 {
		return
	}
	b.flashRemaining -= dt
	if b.flashRemaining <= 0 {
		b.flashRemaining = 0
		b.hooks.DeactivateTimer()
	}
}

func (b *Backend) updateStatusBar() {
	cur, total := b.MoveCounts()
	text := fmt.Sprintf("Moves: %d/%d", cur, total)
	if limit := b.active.moveLimit(); limit > 0 {
		text += fmt.Sprintf(" (limit %d)", limit)
	}
	switch puzzle.StatusFromValue(b.StatusValue()) {
	case puzzle.StatusSolved, puzzle.StatusSolvedWithHelp:
		text += " SOLVED"
	case puzzle.StatusLost:
		text += " LOST"
	}
	if text != b.statusText {
		b.statusText = text
		b.hooks.StatusBar(text)
	}
}

func packBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, bit := range bits {
		if bit {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

func unpackBits(data []byte, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = data[i/8]&(1<<uint(i%8)) != 0
	}
	return out
}
