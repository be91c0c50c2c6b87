package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/minecraftwithtwink/Modpack-Updater/internal/instance"
)

// Browser lists the folders inside one directory. It tracks a cursor and a
// marked entry: the first Enter on a folder marks it, a second Enter on the
// marked folder confirms it.
type Browser struct {
	start  string
	dir    string
	items  []string
	cursor int
	marked string

	width, height int
	offset        int
}

func NewBrowser() *Browser {
	return &Browser{}
}

// Open points the browser at dir and remembers it as the folder Reset returns to.
func (b *Browser) Open(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if err := b.load(abs); err != nil {
		return err
	}
	b.start = abs
	b.cursor = 0
	b.marked = ""
	return nil
}

func (b *Browser) load(dir string) error {
	items, err := instance.Subdirs(dir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}
	b.dir = dir
	b.items = items
	b.offset = 0
	return nil
}

// Opened reports whether Open has succeeded at least once.
func (b *Browser) Opened() bool { return b.dir != "" }

// Dir is the folder being listed.
func (b *Browser) Dir() string { return b.dir }

// Items are the absolute paths of the listed folders, sorted.
func (b *Browser) Items() []string { return b.items }

// Cursor is the index of the highlighted folder.
func (b *Browser) Cursor() int { return b.cursor }

// Current returns the highlighted folder.
func (b *Browser) Current() (string, bool) {
	if len(b.items) == 0 {
		return "", false
	}
	return b.items[b.cursor], true
}

// Marked returns the marked folder, or "" when none is.
func (b *Browser) Marked() string { return b.marked }

// Mark marks the highlighted folder.
func (b *Browser) Mark() {
	if cur, ok := b.Current(); ok {
		b.marked = cur
	}
}

// Unmark clears the mark and reports whether there was one.
func (b *Browser) Unmark() bool {
	had := b.marked != ""
	b.marked = ""
	return had
}

// Next moves the cursor down, wrapping to the top.
func (b *Browser) Next() {
	if len(b.items) == 0 {
		return
	}
	b.cursor = (b.cursor + 1) % len(b.items)
}

// Prev moves the cursor up, wrapping to the bottom.
func (b *Browser) Prev() {
	if len(b.items) == 0 {
		return
	}
	b.cursor = (b.cursor - 1 + len(b.items)) % len(b.items)
}

// In opens the highlighted folder.
func (b *Browser) In() error {
	cur, ok := b.Current()
	if !ok {
		return nil
	}
	if err := b.load(cur); err != nil {
		return err
	}
	b.cursor = 0
	b.marked = ""
	return nil
}

// Up opens the parent folder with the folder just left highlighted. At the
// filesystem root it does nothing.
func (b *Browser) Up() error {
	parent := filepath.Dir(b.dir)
	if parent == b.dir {
		return nil
	}
	left := b.dir
	if err := b.load(parent); err != nil {
		return err
	}
	b.cursor = 0
	for i, item := range b.items {
		if item == left {
			b.cursor = i
			break
		}
	}
	b.marked = ""
	return nil
}

// Reset returns to the folder passed to Open.
func (b *Browser) Reset() error {
	if b.start == "" {
		return nil
	}
	return b.Open(b.start)
}

// SetSize sets the area the listing renders into.
func (b *Browser) SetSize(width, height int) {
	b.width = width
	b.height = height
}

var browserDirStyle = lipgloss.NewStyle().Foreground(ColorFoam).Bold(true)

var browserInstanceStyle = lipgloss.NewStyle().Foreground(ColorGold)

func (b *Browser) String() string {
	width := max(b.width, 20)
	var s strings.Builder
	s.WriteString(browserDirStyle.Render(ansi.Truncate(b.dir, width, "…")))
	s.WriteString("\n\n")

	if len(b.items) == 0 {
		s.WriteString(mutedStyle.Render("  (no folders here)"))
		return s.String()
	}

	rows := len(b.items)
	if b.height > 2 {
		rows = min(rows, b.height-2)
	}
	// keep the cursor inside the visible window
	if b.cursor < b.offset {
		b.offset = b.cursor
	}
	if b.cursor >= b.offset+rows {
		b.offset = b.cursor - rows + 1
	}

	for i := b.offset; i < b.offset+rows && i < len(b.items); i++ {
		item := b.items[i]
		label := filepath.Base(item) + string(filepath.Separator)
		prefix := "  "
		if item == b.marked {
			prefix = "✓ "
		}
		line := ansi.Truncate(prefix+label, width-2, "…")
		switch {
		case i == b.cursor:
			line = cursorStyle.Render(line)
		case item == b.marked:
			line = markedStyle.Render(line)
		case instance.IsValid(item):
			line = browserInstanceStyle.Render(line)
		default:
			line = textStyle.Render(line)
		}
		s.WriteString(line)
		if i < b.offset+rows-1 && i < len(b.items)-1 {
			s.WriteString("\n")
		}
	}
	return s.String()
}
