package session

import "sync"

// Cell is an independently observable value with an equality-gated setter:
// writes that do not change the value notify nobody, so redundant change
// notifications from the worker cause no reactive churn downstream.
//
// Thread-safety: all methods may be called from any goroutine. Subscribers
// run synchronously on the writer's goroutine and must not call back into
// the cell.
type Cell[T comparable] struct {
	mu    sync.Mutex
	value T
	subs  map[int]func(T)
	next  int
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// set stores v and notifies subscribers if it differs from the current
// value. Reports whether a change occurred.
func (c *Cell[T]) set(v T) bool {
	c.mu.Lock()
	if v == c.value {
		c.mu.Unlock()
		return false
	}
	c.value = v
	fns := make([]func(T), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
	return true
}

// Subscribe registers fn to run on every change. The returned function
// cancels the subscription.
func (c *Cell[T]) Subscribe(fn func(T)) (cancel func()) {
	c.mu.Lock()
	if c.subs == nil {
		c.subs = make(map[int]func(T))
	}
	id := c.next
	c.next++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}
