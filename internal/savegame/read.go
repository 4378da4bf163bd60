package savegame

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oxleaf/parlour/internal/puzzle"
)

// ErrNotFound is returned by LoadGame when no record exists for the key.
var ErrNotFound = errors.New("saved game not found")

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// ListSavedGames returns metadata for user-type records, optionally scoped
// to one puzzle (puzzleID == "" lists all). Ordering is by puzzle then
// filename; display ordering is the caller's concern.
func (s *Store) ListSavedGames(ctx context.Context, puzzleID string) ([]Metadata, error) {
	query := `
		SELECT puzzle_id, filename, timestamp, status, game_id
		FROM saved_games
		WHERE save_type = 'user'
	`
	args := []any{}
	if puzzleID != "" {
		query += ` AND puzzle_id = ?`
		args = append(args, puzzleID)
	}
	query += ` ORDER BY puzzle_id, filename`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list saved games: %w", err)
	}
	defer rows.Close()

	var out []Metadata
	for rows.Next() {
		var m Metadata
		var ts int64
		var status string
		if err := rows.Scan(&m.PuzzleID, &m.Filename, &ts, &status, &m.GameID); err != nil {
			return nil, fmt.Errorf("list saved games: scan: %w", err)
		}
		m.SaveType = SaveTypeUser
		m.Timestamp = time.UnixMilli(ts)
		m.Status = puzzle.Status(status)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list saved games: %w", err)
	}
	return out, nil
}

// AutoSavedPuzzles returns the distinct puzzle ids that have at least one
// autosave record. For a continuously-updated view, see Subscribe in
// watch.go.
func (s *Store) AutoSavedPuzzles(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT puzzle_id FROM saved_games WHERE save_type = 'auto'
	`)
	if err != nil {
		return nil, fmt.Errorf("auto-saved puzzles: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("auto-saved puzzles: scan: %w", err)
		}
		out[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("auto-saved puzzles: %w", err)
	}
	return out, nil
}

// FindMostRecentAutoSave returns the filename of the newest autosave for
// puzzleID, or "" when none exist.
func (s *Store) FindMostRecentAutoSave(ctx context.Context, puzzleID string) (string, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT filename FROM saved_games
		WHERE puzzle_id = ? AND save_type = 'auto'
		ORDER BY timestamp DESC
		LIMIT 1
	`, puzzleID)

	var filename string
	if err := row.Scan(&filename); err != nil {
		if isNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("most recent autosave for %s: %w", puzzleID, err)
	}
	return filename, nil
}

// escapeLike escapes the LIKE wildcards in s so it matches literally under
// ESCAPE '\'.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// MakeUntitledFilename generates the next free "<base>N" name among the
// user-type records for puzzleID: it scans existing filenames with the
// given prefix, parses trailing numeric suffixes, and returns base+(max+1).
// With no prior matches the result is base+"1".
func (s *Store) MakeUntitledFilename(ctx context.Context, puzzleID, base string) (string, error) {
	if base == "" {
		base = "Untitled-"
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT filename FROM saved_games
		WHERE puzzle_id = ? AND save_type = 'user' AND filename LIKE ? ESCAPE '\'
	`, puzzleID, escapeLike(base)+"%")
	if err != nil {
		return "", fmt.Errorf("untitled filename for %s: %w", puzzleID, err)
	}
	defer rows.Close()

	max := 0
	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return "", fmt.Errorf("untitled filename for %s: scan: %w", puzzleID, err)
		}
		suffix := strings.TrimPrefix(filename, base)
		n, err := strconv.Atoi(suffix)
		if err != nil || n < 1 {
			// Not a numeric suffix ("Untitled-draft"); ignore it.
			continue
		}
		if n > max {
			max = n
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("untitled filename for %s: %w", puzzleID, err)
	}
	return base + strconv.Itoa(max+1), nil
}

// LoadResult reports the outcome of loading a found record.
type LoadResult struct {
	// Err is the user-facing deserialization error, "" on success.
	Err string
	// GameID is the restored game's id on success.
	GameID string
}

// LoadGame looks up the user-named record and loads it into sess. A
// missing record returns ErrNotFound; a found record that fails to
// deserialize reports the failure in LoadResult.Err. On success the
// record's checkpoint snapshot replaces the session's checkpoints.
func (s *Store) LoadGame(ctx context.Context, sess Session, filename string) (LoadResult, error) {
	return s.load(ctx, sess, SaveTypeUser, filename)
}

// RestoreAutoSavedGame loads the autosave under autosaveID into sess.
// found is false when no such record exists — normal on first run, not an
// error. Deserialization failure of a found record is returned as an error.
func (s *Store) RestoreAutoSavedGame(ctx context.Context, sess Session, autosaveID string) (found bool, err error) {
	res, err := s.load(ctx, sess, SaveTypeAuto, autosaveID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if res.Err != "" {
		return true, fmt.Errorf("restore autosave %s/%s: %s", sess.PuzzleID(), autosaveID, res.Err)
	}
	return true, nil
}

func (s *Store) load(ctx context.Context, sess Session, saveType SaveType, filename string) (LoadResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT data, checkpoints FROM saved_games
		WHERE puzzle_id = ? AND save_type = ? AND filename = ?
	`, sess.PuzzleID(), string(saveType), filename)

	var data []byte
	var checkpointsJSON string
	if err := row.Scan(&data, &checkpointsJSON); err != nil {
		if isNoRows(err) {
			return LoadResult{}, fmt.Errorf("%w: %s/%s/%s", ErrNotFound, sess.PuzzleID(), saveType, filename)
		}
		return LoadResult{}, fmt.Errorf("load %s/%s: %w", sess.PuzzleID(), filename, err)
	}

	errstr, err := sess.LoadGame(ctx, data)
	if err != nil {
		return LoadResult{}, fmt.Errorf("load %s/%s: %w", sess.PuzzleID(), filename, err)
	}
	if errstr != "" {
		return LoadResult{Err: errstr}, nil
	}

	var checkpoints []int
	if err := json.Unmarshal([]byte(checkpointsJSON), &checkpoints); err != nil {
		// The game itself loaded; a mangled checkpoint snapshot degrades
		// to an empty set rather than failing the load.
		checkpoints = nil
	}
	sess.ReplaceCheckpoints(checkpoints)

	return LoadResult{GameID: sess.CurrentGameID()}, nil
}
