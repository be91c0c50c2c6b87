package ui

import "github.com/charmbracelet/lipgloss"

// Rosé Pine Moon palette
// https://rosepinetheme.com/palette/
var (
	// Base tones
	ColorBase    = lipgloss.Color("#232136")
	ColorSurface = lipgloss.Color("#2a273f")
	ColorOverlay = lipgloss.Color("#393552")
	ColorMuted   = lipgloss.Color("#6e6a86")
	ColorSubtle  = lipgloss.Color("#908caa")
	ColorText    = lipgloss.Color("#e0def4")

	// Semantic colors
	ColorLove = lipgloss.Color("#eb6f92") // error, danger
	ColorGold = lipgloss.Color("#f6c177") // warning
	ColorRose = lipgloss.Color("#ea9a97") // accent, secondary
	ColorPine = lipgloss.Color("#3e8fb0") // link
	ColorFoam = lipgloss.Color("#9ccfd8") // info, running
	ColorIris = lipgloss.Color("#c4a7e7") // highlight, primary

	// Progress bar gradient endpoints
	GradientStart = "#9ccfd8" // foam
	GradientEnd   = "#c4a7e7" // iris
)

// Tone picks the accent of a dialog.
type Tone int

const (
	ToneInfo Tone = iota
	ToneWarning
	ToneError
	ToneSuccess
)

func (t Tone) color() lipgloss.Color {
	switch t {
	case ToneWarning:
		return ColorGold
	case ToneError:
		return ColorLove
	case ToneSuccess:
		return ColorFoam
	default:
		return ColorIris
	}
}

var titleStyle = lipgloss.NewStyle().Foreground(ColorIris).Bold(true)

var textStyle = lipgloss.NewStyle().Foreground(ColorText)

var mutedStyle = lipgloss.NewStyle().Foreground(ColorMuted)

var cursorStyle = lipgloss.NewStyle().Foreground(ColorBase).Background(ColorIris).Bold(true)

var markedStyle = lipgloss.NewStyle().Foreground(ColorFoam).Bold(true)
