package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChoice_WrapsAndMarks(t *testing.T) {
	c := NewChoice([]string{"beta", "main", "stable"})

	c.Prev()
	cur, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, "stable", cur)

	_, ok = c.Marked()
	assert.False(t, ok)

	c.Mark()
	c.Next()
	marked, ok := c.Marked()
	require.True(t, ok)
	assert.Equal(t, "stable", marked)
	assert.Equal(t, 0, c.Cursor())

	assert.True(t, c.Unmark())
	_, ok = c.Marked()
	assert.False(t, ok)
}

func TestChoice_Empty(t *testing.T) {
	c := NewChoice(nil)
	c.Next()
	c.Mark()
	_, ok := c.Marked()
	assert.False(t, ok)
	assert.Contains(t, c.Render(40), "nothing to choose from")
}

func TestChoice_RenderShowsEveryItem(t *testing.T) {
	c := NewChoice([]string{"main", "beta"})
	c.Mark()
	out := c.Render(40)
	assert.Contains(t, out, "✓ main")
	assert.Contains(t, out, "beta")
}
