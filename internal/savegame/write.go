package savegame

import (
	"context"
	"encoding/json"
	"fmt"
)

// SaveGame snapshots sess into a user-named record, overwriting any
// existing record with the same (puzzleId, user, filename).
func (s *Store) SaveGame(ctx context.Context, sess Session, filename string) error {
	return s.save(ctx, sess, SaveTypeUser, filename)
}

// AutoSaveGame snapshots sess into an autosave record under autosaveID,
// overwriting any existing record with the same (puzzleId, auto, autosaveID).
func (s *Store) AutoSaveGame(ctx context.Context, sess Session, autosaveID string) error {
	if err := s.save(ctx, sess, SaveTypeAuto, autosaveID); err != nil {
		return err
	}
	s.autoChanged(ctx)
	return nil
}

// save captures status, game id, serialized bytes, and the checkpoint set
// at call time, then upserts the record in one statement. The upsert is
// what enforces last-write-wins on the compound key.
func (s *Store) save(ctx context.Context, sess Session, saveType SaveType, filename string) error {
	data, err := sess.SaveGame(ctx)
	if err != nil {
		return fmt.Errorf("save %s/%s: serialize: %w", sess.PuzzleID(), filename, err)
	}

	checkpoints, err := json.Marshal(sess.Checkpoints())
	if err != nil {
		return fmt.Errorf("save %s/%s: encode checkpoints: %w", sess.PuzzleID(), filename, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saved_games
		(puzzle_id, save_type, filename, timestamp, status, game_id, data, checkpoints)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(puzzle_id, save_type, filename) DO UPDATE SET
			timestamp   = excluded.timestamp,
			status      = excluded.status,
			game_id     = excluded.game_id,
			data        = excluded.data,
			checkpoints = excluded.checkpoints
	`,
		sess.PuzzleID(),
		string(saveType),
		filename,
		s.now().UnixMilli(),
		string(sess.Status()),
		sess.CurrentGameID(),
		data,
		string(checkpoints),
	)
	if err != nil {
		return fmt.Errorf("save %s/%s: %w", sess.PuzzleID(), filename, err)
	}
	return nil
}

// PutSetting stores a settings blob under id, overwriting any prior value.
func (s *Store) PutSetting(ctx context.Context, id string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at
	`, id, value, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("put setting %s: %w", id, err)
	}
	return nil
}

// GetSetting reads a settings blob. found is false when id is absent.
func (s *Store) GetSetting(ctx context.Context, id string) (value []byte, found bool, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE id = ?`, id)
	if err := row.Scan(&value); err != nil {
		if isNoRows(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get setting %s: %w", id, err)
	}
	return value, true, nil
}

// Setting ids used by the session engine.

// ParamsSettingID is the settings key for a puzzle's last-set params.
func ParamsSettingID(puzzleID string) string { return "params/" + puzzleID }

// PrefsSettingID is the settings key for a puzzle's preference blob.
func PrefsSettingID(puzzleID string) string { return "prefs/" + puzzleID }
