package ui

import (
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// Pager shows pre-rendered text, such as the changelog, one screen at a time.
type Pager struct {
	vp viewport.Model
}

func NewPager() *Pager {
	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorOverlay)
	return &Pager{vp: vp}
}

// SetContent replaces the text and scrolls back to the top.
func (p *Pager) SetContent(s string) {
	p.vp.SetContent(s)
	p.vp.GotoTop()
}

func (p *Pager) SetSize(width, height int) {
	p.vp.Width = max(width, 10)
	p.vp.Height = max(height, 3)
}

// ScrollUp moves up one line, stopping at the top.
func (p *Pager) ScrollUp() {
	p.vp.SetYOffset(p.vp.YOffset - 1)
}

// ScrollDown moves down one line, stopping at the bottom.
func (p *Pager) ScrollDown() {
	p.vp.SetYOffset(p.vp.YOffset + 1)
}

// Offset is the index of the first visible line.
func (p *Pager) Offset() int { return p.vp.YOffset }

func (p *Pager) String() string { return p.vp.View() }
