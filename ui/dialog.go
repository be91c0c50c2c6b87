package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

// Dialog is a bordered message box centered on screen.
type Dialog struct {
	Title string
	Body  string
	Tone  Tone
	// Footer is rendered below the body, usually a key hint line.
	Footer string
}

const dialogMaxWidth = 72

// Render draws d centered in a width x height area.
func (d Dialog) Render(width, height int) string {
	inner := min(dialogMaxWidth, max(width-6, 20))

	// wordwrap keeps words whole; wrap then breaks long paths that have no spaces.
	body := wrap.String(wordwrap.String(d.Body, inner), inner)

	var parts []string
	if d.Title != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(d.Tone.color()).Bold(true).Render(d.Title), "")
	}
	parts = append(parts, textStyle.Render(body))
	if d.Footer != "" {
		parts = append(parts, "", d.Footer)
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(d.Tone.color()).
		Padding(1, 2).
		Width(inner + 4).
		Render(strings.Join(parts, "\n"))

	if width <= 0 || height <= 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
