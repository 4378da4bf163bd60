package puzzle

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownPuzzle is returned when no backend is registered for an id.
var ErrUnknownPuzzle = errors.New("unknown puzzle")

// Factory constructs a backend with the host's hooks installed.
type Factory func(hooks Hooks) Backend

// Registry maps stable puzzle ids to backend factories.
//
// Thread-safety: Register and New may be called from any goroutine.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under id. Registering the same id twice is a
// programming error and panics.
func (r *Registry) Register(id string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[id]; dup {
		panic(fmt.Sprintf("puzzle: duplicate registration for %q", id))
	}
	r.factories[id] = f
}

// New constructs a backend for id with the given hooks. Nil hook fields
// are replaced with no-ops, so backends may invoke them unconditionally.
func (r *Registry) New(id string, hooks Hooks) (Backend, error) {
	r.mu.RLock()
	f, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPuzzle, id)
	}
	return f(hooks.normalized()), nil
}

// IDs returns the registered puzzle ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
