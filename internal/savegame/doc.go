// Package savegame provides SQLite-backed durable storage for puzzle
// sessions: user-named saves, autosaves, and the small settings table the
// session engine reads and writes.
//
// # Invariants
//
// Uniqueness: the triple (puzzle_id, save_type, filename) is the primary
// key of saved_games — at most one record per triple, and a save over an
// existing triple overwrites it (last write wins, enforced transactionally
// by the ON CONFLICT upsert).
//
// Recency: a secondary index on (puzzle_id, save_type, timestamp) backs
// "most recent autosave" lookups.
//
// Idempotent deletes: every remove operation is a no-op on missing keys.
//
// The saved game payload is an opaque blob produced by the native module's
// serializer; this package never interprets it.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON
package savegame
