package session

import (
	"context"
	"fmt"
)

// AddCheckpoint bookmarks the current move. No-op if already bookmarked.
func (s *Session) AddCheckpoint() {
	s.AddCheckpointAt(s.State.CurrentMove.Get())
}

// AddCheckpointAt bookmarks the given move index.
func (s *Session) AddCheckpointAt(move int) {
	s.ckMu.Lock()
	defer s.ckMu.Unlock()
	s.checkpoints.Add(move)
}

// RemoveCheckpoint drops the bookmark at move. No-op if absent.
func (s *Session) RemoveCheckpoint(move int) {
	s.ckMu.Lock()
	defer s.ckMu.Unlock()
	s.checkpoints.Remove(move)
}

// HasCheckpoint reports whether move is bookmarked.
func (s *Session) HasCheckpoint(move int) bool {
	s.ckMu.Lock()
	defer s.ckMu.Unlock()
	return s.checkpoints.Has(move)
}

// Checkpoints returns the bookmarked move indices in ascending order.
func (s *Session) Checkpoints() []int {
	s.ckMu.Lock()
	defer s.ckMu.Unlock()
	return s.checkpoints.All()
}

// ReplaceCheckpoints swaps in a restored bookmark set, as when loading a
// saved game.
func (s *Session) ReplaceCheckpoints(moves []int) {
	s.ckMu.Lock()
	defer s.ckMu.Unlock()
	s.checkpoints.Replace(moves)
}

// GoToCheckpoint walks the move history to the given index by issuing one
// undo or redo per step, each awaited before the next. An out-of-range
// index is a hard error and leaves state untouched.
func (s *Session) GoToCheckpoint(ctx context.Context, move int) error {
	total := s.State.TotalMoves.Get()
	if move < 0 || move > total {
		return fmt.Errorf("checkpoint %d out of range [0, %d]", move, total)
	}
	current := s.State.CurrentMove.Get()
	steps := move - current
	step := s.Redo
	if steps < 0 {
		steps = -steps
		step = s.Undo
	}
	for i := 0; i < steps; i++ {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}
