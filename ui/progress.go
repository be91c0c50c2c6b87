package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Progress renders a job's latest message with a bar when the job reports a
// ratio and a spinner when it does not.
type Progress struct {
	bar     progress.Model
	spinner *spinner.Model
	width   int
}

// NewProgress shares the caller's spinner so a single tick loop animates it.
func NewProgress(s *spinner.Model) *Progress {
	return &Progress{
		bar:     progress.New(progress.WithGradient(GradientStart, GradientEnd)),
		spinner: s,
	}
}

func (p *Progress) SetWidth(width int) {
	p.width = width
	p.bar.Width = min(max(width-8, 10), 60)
}

var progressMessageStyle = lipgloss.NewStyle().Foreground(ColorText)

// Bar renders message over a bar filled to ratio.
func (p *Progress) Bar(message string, ratio float64) string {
	var s strings.Builder
	s.WriteString(p.spinner.View())
	s.WriteString(" ")
	s.WriteString(progressMessageStyle.Render(ansi.Truncate(message, max(p.width-4, 10), "…")))
	s.WriteString("\n\n")
	s.WriteString(p.bar.ViewAs(ratio))
	return s.String()
}

// Waiting renders message next to the spinner.
func (p *Progress) Waiting(message string) string {
	return p.spinner.View() + " " + progressMessageStyle.Render(message)
}
