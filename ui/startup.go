package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// BrowseEntryLabel is the entry after the last history path.
const BrowseEntryLabel = "Browse for an instance folder..."

// StartupMenu renders the list of previously synchronized instances with the
// browse entry appended. cursor may equal len(history), which highlights the
// browse entry.
func StartupMenu(history []string, cursor, width int) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("Modpack Updater"))
	s.WriteString("\n\n")
	if len(history) == 0 {
		s.WriteString(mutedStyle.Render("No instance has been updated yet."))
	} else {
		s.WriteString(mutedStyle.Render("Update a recent instance:"))
	}
	s.WriteString("\n\n")

	for i, p := range history {
		s.WriteString(startupRow(p, i == cursor, width))
		s.WriteString("\n")
	}
	if len(history) > 0 {
		s.WriteString("\n")
	}
	s.WriteString(startupRow(BrowseEntryLabel, cursor >= len(history), width))
	return s.String()
}

func startupRow(label string, selected bool, width int) string {
	line := ansi.Truncate("  "+label, max(width, 20), "…")
	if selected {
		return cursorStyle.Render(line)
	}
	return textStyle.Render(line)
}
