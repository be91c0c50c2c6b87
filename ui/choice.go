package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Choice is a vertical pick list with wrapping navigation. Like Browser it
// separates the highlighted entry from the marked one.
type Choice struct {
	items  []string
	cursor int
	marked int
}

func NewChoice(items []string) *Choice {
	return &Choice{items: items, marked: -1}
}

func (c *Choice) Items() []string { return c.items }

func (c *Choice) Cursor() int { return c.cursor }

func (c *Choice) Next() {
	if len(c.items) == 0 {
		return
	}
	c.cursor = (c.cursor + 1) % len(c.items)
}

func (c *Choice) Prev() {
	if len(c.items) == 0 {
		return
	}
	c.cursor = (c.cursor - 1 + len(c.items)) % len(c.items)
}

// Current returns the highlighted item.
func (c *Choice) Current() (string, bool) {
	if len(c.items) == 0 {
		return "", false
	}
	return c.items[c.cursor], true
}

// Mark marks the highlighted item.
func (c *Choice) Mark() {
	if len(c.items) > 0 {
		c.marked = c.cursor
	}
}

// Marked returns the marked item.
func (c *Choice) Marked() (string, bool) {
	if c.marked < 0 || c.marked >= len(c.items) {
		return "", false
	}
	return c.items[c.marked], true
}

// Unmark clears the mark and reports whether there was one.
func (c *Choice) Unmark() bool {
	had := c.marked >= 0
	c.marked = -1
	return had
}

// Render draws the list at most width cells wide.
func (c *Choice) Render(width int) string {
	if len(c.items) == 0 {
		return mutedStyle.Render("  (nothing to choose from)")
	}
	lines := make([]string, 0, len(c.items))
	for i, item := range c.items {
		prefix := "  "
		if i == c.marked {
			prefix = "✓ "
		}
		line := ansi.Truncate(prefix+item, max(width, 10), "…")
		switch {
		case i == c.cursor:
			line = cursorStyle.Render(line)
		case i == c.marked:
			line = markedStyle.Render(line)
		default:
			line = textStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
