package savegame

import (
	"context"
	"fmt"
)

// All removal operations are idempotent: deleting a missing key is a no-op.

// RemoveSavedGame deletes one user-named record.
func (s *Store) RemoveSavedGame(ctx context.Context, puzzleID, filename string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM saved_games
		WHERE puzzle_id = ? AND save_type = 'user' AND filename = ?
	`, puzzleID, filename)
	if err != nil {
		return fmt.Errorf("remove saved game %s/%s: %w", puzzleID, filename, err)
	}
	return nil
}

// RemoveAutoSavedGame deletes one autosave record.
func (s *Store) RemoveAutoSavedGame(ctx context.Context, puzzleID, autosaveID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM saved_games
		WHERE puzzle_id = ? AND save_type = 'auto' AND filename = ?
	`, puzzleID, autosaveID)
	if err != nil {
		return fmt.Errorf("remove autosave %s/%s: %w", puzzleID, autosaveID, err)
	}
	s.autoChanged(ctx)
	return nil
}

// RemoveAllAutoSavedGames deletes every autosave record for puzzleID.
func (s *Store) RemoveAllAutoSavedGames(ctx context.Context, puzzleID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM saved_games
		WHERE puzzle_id = ? AND save_type = 'auto'
	`, puzzleID)
	if err != nil {
		return fmt.Errorf("remove autosaves for %s: %w", puzzleID, err)
	}
	s.autoChanged(ctx)
	return nil
}

// RemoveAllSavedGames deletes every user-named record for puzzleID.
func (s *Store) RemoveAllSavedGames(ctx context.Context, puzzleID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM saved_games
		WHERE puzzle_id = ? AND save_type = 'user'
	`, puzzleID)
	if err != nil {
		return fmt.Errorf("remove saved games for %s: %w", puzzleID, err)
	}
	return nil
}

// RemoveAll deletes every saved-game record for puzzleID, both types.
func (s *Store) RemoveAll(ctx context.Context, puzzleID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM saved_games WHERE puzzle_id = ?
	`, puzzleID)
	if err != nil {
		return fmt.Errorf("remove all for %s: %w", puzzleID, err)
	}
	s.autoChanged(ctx)
	return nil
}
