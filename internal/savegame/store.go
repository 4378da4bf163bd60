package savegame

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/oxleaf/parlour/internal/puzzle"
)

//go:embed schema.sql
var schemaSQL string

// SaveType discriminates user-named saves from autosaves.
type SaveType string

const (
	SaveTypeUser SaveType = "user"
	SaveTypeAuto SaveType = "auto"
)

// Metadata describes a saved game without its payload.
type Metadata struct {
	PuzzleID  string
	Filename  string
	SaveType  SaveType
	Timestamp time.Time
	Status    puzzle.Status
	GameID    string
}

// Session is the slice of the session facade the store needs for
// save/load. Implemented by *session.Session; kept as an interface so the
// store owns no session lifecycle.
type Session interface {
	PuzzleID() string
	Status() puzzle.Status
	CurrentGameID() string
	Checkpoints() []int
	ReplaceCheckpoints(moves []int)
	SaveGame(ctx context.Context) ([]byte, error)
	// LoadGame returns a user-facing error string ("" = success) for
	// deserialization failures and a Go error for transport failures.
	LoadGame(ctx context.Context, data []byte) (string, error)
}

// Store provides durable storage for saved games and settings.
// Safe for concurrent use; SQLite serializes writers.
type Store struct {
	db  *sql.DB
	now func() time.Time

	// Autosave live-view state (see watch.go).
	watchMu  sync.Mutex
	watchers map[int]func(map[string]struct{})
	nextSub  int
	lastAuto map[string]struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source. Tests use this for
// deterministic recency ordering.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open creates or opens the database at path. Idempotent: safe to call on
// an existing database; pragmas and schema are applied on every open.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent sessions.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s := &Store{
		db:       db,
		now:      time.Now,
		watchers: make(map[int]func(map[string]struct{})),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}
