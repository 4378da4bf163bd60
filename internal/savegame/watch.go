package savegame

import (
	"context"
	"log/slog"
	"maps"
)

// SubscribeAutoSaved registers fn for the continuously-updated view of
// puzzles with at least one autosave. fn is called once immediately with
// the current set, then again after every change to it — the UI can show
// "resume" affordances without polling. The returned function cancels the
// subscription.
//
// fn receives a private copy of the set and may retain it.
func (s *Store) SubscribeAutoSaved(ctx context.Context, fn func(map[string]struct{})) (cancel func(), err error) {
	current, err := s.AutoSavedPuzzles(ctx)
	if err != nil {
		return nil, err
	}

	s.watchMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.watchers[id] = fn
	if s.lastAuto == nil {
		s.lastAuto = current
	}
	s.watchMu.Unlock()

	fn(maps.Clone(current))

	return func() {
		s.watchMu.Lock()
		delete(s.watchers, id)
		s.watchMu.Unlock()
	}, nil
}

// autoChanged re-runs the distinct-puzzles query and notifies subscribers
// when the set actually changed. Called after every write or delete that
// can touch auto-type records.
func (s *Store) autoChanged(ctx context.Context) {
	s.watchMu.Lock()
	hasWatchers := len(s.watchers) > 0
	s.watchMu.Unlock()
	if !hasWatchers {
		return
	}

	current, err := s.AutoSavedPuzzles(ctx)
	if err != nil {
		slog.Warn("autosave view refresh failed", "error", err)
		return
	}

	s.watchMu.Lock()
	if maps.Equal(s.lastAuto, current) {
		s.watchMu.Unlock()
		return
	}
	s.lastAuto = current
	fns := make([]func(map[string]struct{}), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.watchMu.Unlock()

	for _, fn := range fns {
		fn(maps.Clone(current))
	}
}
