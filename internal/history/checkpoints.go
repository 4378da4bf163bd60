// Package history holds the pure bookmark logic over a session's move
// history: a set of user-placed checkpoints, bounded by the move count.
package history

import "sort"

// Checkpoints is a set of bookmarked move indices.
//
// Thread-safety: none. The owning session serializes access.
type Checkpoints struct {
	set map[int]struct{}
}

// New creates an empty checkpoint set.
func New() *Checkpoints {
	return &Checkpoints{set: make(map[int]struct{})}
}

// Add inserts move into the set. No-op if already present.
func (c *Checkpoints) Add(move int) {
	c.set[move] = struct{}{}
}

// Remove deletes move from the set. No-op if absent.
func (c *Checkpoints) Remove(move int) {
	delete(c.set, move)
}

// Has reports whether move is bookmarked.
func (c *Checkpoints) Has(move int) bool {
	_, ok := c.set[move]
	return ok
}

// Len returns the number of checkpoints.
func (c *Checkpoints) Len() int {
	return len(c.set)
}

// All returns the checkpoints in ascending order.
func (c *Checkpoints) All() []int {
	out := make([]int, 0, len(c.set))
	for m := range c.set {
		out = append(out, m)
	}
	sort.Ints(out)
	return out
}

// Replace resets the set to the given moves (used when restoring a save).
func (c *Checkpoints) Replace(moves []int) {
	c.set = make(map[int]struct{}, len(moves))
	for _, m := range moves {
		c.set[m] = struct{}{}
	}
}

// Purge removes every checkpoint strictly greater than newTotalMoves and
// returns the removed indices in ascending order.
//
// The comparison is deliberately strict: a checkpoint exactly at
// newTotalMoves always survives. This biases toward keeping checkpoints —
// an undo followed by a redo back to the same point must not lose the
// bookmark. The cost is a known limitation: an undo followed by a branch
// onto a genuinely new move can leave a stale checkpoint attached to the
// abandoned position, because the move history records no branch points to
// tell the two cases apart. Do not "fix" this by changing the comparison;
// the correct resolution needs data the model does not keep.
func (c *Checkpoints) Purge(newTotalMoves int) []int {
	var removed []int
	for m := range c.set {
		if m > newTotalMoves {
			removed = append(removed, m)
			delete(c.set, m)
		}
	}
	sort.Ints(removed)
	return removed
}
