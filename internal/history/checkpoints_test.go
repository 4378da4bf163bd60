package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdd_Idempotent(t *testing.T) {
	c := New()
	c.Add(3)
	c.Add(3)
	c.Add(1)

	assert.Equal(t, []int{1, 3}, c.All())
	assert.Equal(t, 2, c.Len())
}

func TestRemove_MissingIsNoop(t *testing.T) {
	c := New()
	c.Add(2)

	c.Remove(7)
	assert.Equal(t, []int{2}, c.All())

	c.Remove(2)
	assert.Empty(t, c.All())
}

func TestHas(t *testing.T) {
	c := New()
	c.Add(5)

	assert.True(t, c.Has(5))
	assert.False(t, c.Has(4))
}

func TestReplace(t *testing.T) {
	c := New()
	c.Add(1)
	c.Add(2)

	c.Replace([]int{8, 4})
	assert.Equal(t, []int{4, 8}, c.All())

	c.Replace(nil)
	assert.Empty(t, c.All())
}

func TestPurge_StrictlyGreaterOnly(t *testing.T) {
	tests := []struct {
		name    string
		have    []int
		total   int
		want    []int
		removed []int
	}{
		{
			name:    "removes past the new total",
			have:    []int{0, 2, 5, 9},
			total:   5,
			want:    []int{0, 2, 5},
			removed: []int{9},
		},
		{
			name:    "checkpoint exactly at total survives",
			have:    []int{3},
			total:   3,
			want:    []int{3},
			removed: nil,
		},
		{
			name:    "empty set",
			have:    nil,
			total:   0,
			want:    nil,
			removed: nil,
		},
		{
			name:    "everything past zero removed",
			have:    []int{1, 2, 3},
			total:   0,
			want:    nil,
			removed: []int{1, 2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			for _, m := range tt.have {
				c.Add(m)
			}

			removed := c.Purge(tt.total)

			assert.Equal(t, tt.removed, removed)
			if tt.want == nil {
				assert.Empty(t, c.All())
			} else {
				assert.Equal(t, tt.want, c.All())
			}
		})
	}
}

// Undo back to a bookmarked move and redo past it again: the bookmark must
// survive both purges.
func TestPurge_UndoRedoKeepsBookmark(t *testing.T) {
	c := New()
	c.Add(4)

	c.Purge(4) // undo to move 4
	assert.True(t, c.Has(4))

	c.Purge(6) // redo forward again
	assert.True(t, c.Has(4))
}
