package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// StatusBarData holds the contextual information displayed in the status bar.
type StatusBarData struct {
	Version  string
	Instance string // folder being updated, empty before one is chosen
	Branch   string
	Activity string // running background job, e.g. "syncing"
	Update   string // newer release waiting to be installed
}

// StatusBar is the top status bar component.
type StatusBar struct {
	width int
	data  StatusBarData
}

// NewStatusBar creates a new StatusBar.
func NewStatusBar() *StatusBar {
	return &StatusBar{}
}

// SetSize sets the terminal width for the status bar.
func (s *StatusBar) SetSize(width int) {
	s.width = width
}

// SetData updates the status bar content.
func (s *StatusBar) SetData(data StatusBarData) {
	s.data = data
}

var statusBarStyle = lipgloss.NewStyle().
	Background(ColorSurface).
	Foreground(ColorText).
	Padding(0, 1)

var statusBarAppNameStyle = lipgloss.NewStyle().
	Foreground(ColorIris).
	Background(ColorSurface).
	Bold(true)

var statusBarSepStyle = lipgloss.NewStyle().
	Foreground(ColorOverlay).
	Background(ColorSurface)

var statusBarBranchStyle = lipgloss.NewStyle().
	Foreground(ColorFoam).
	Background(ColorSurface)

var statusBarTextStyle = lipgloss.NewStyle().
	Foreground(ColorText).
	Background(ColorSurface)

var statusBarActivityStyle = lipgloss.NewStyle().
	Foreground(ColorSubtle).
	Background(ColorSurface)

var statusBarUpdateStyle = lipgloss.NewStyle().
	Foreground(ColorGold).
	Background(ColorSurface)

const statusBarSep = " │ "

func (s *StatusBar) String() string {
	if s.width < 10 {
		return ""
	}

	name := "modpack-updater"
	if s.data.Version != "" {
		name += " v" + s.data.Version
	}
	parts := make([]string, 0, 5)
	parts = append(parts, statusBarAppNameStyle.Render(name))

	if s.data.Instance != "" {
		// leave room for the other segments
		parts = append(parts, statusBarTextStyle.Render(ansi.TruncateLeft(s.data.Instance, max(lipgloss.Width(s.data.Instance)-s.width/2, 0), "…")))
	}

	if s.data.Branch != "" {
		parts = append(parts, statusBarBranchStyle.Render("\ue725 "+s.data.Branch))
	}

	if s.data.Activity != "" {
		parts = append(parts, statusBarActivityStyle.Render(s.data.Activity))
	}

	if s.data.Update != "" {
		parts = append(parts, statusBarUpdateStyle.Render("update "+s.data.Update))
	}

	sep := statusBarSepStyle.Render(statusBarSep)
	content := strings.Join(parts, sep)

	return statusBarStyle.Width(s.width).MaxHeight(1).Render(content)
}
