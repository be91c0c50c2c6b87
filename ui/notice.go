package ui

import (
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// NoticeKind identifies the kind of notice.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeError
)

const (
	InfoNoticeFor  = 3 * time.Second
	ErrorNoticeFor = 5 * time.Second

	minNoticeWidth = 24
	maxNoticeWidth = 56
	maxNotices     = 3
)

type notice struct {
	kind    NoticeKind
	message string
	expires time.Time
	width   int
}

// Notices is a short stack of transient messages drawn in the top right
// corner. Expired notices are dropped on Tick.
type Notices struct {
	notices []*notice
	now     func() time.Time
}

func NewNotices() *Notices {
	return &Notices{now: time.Now}
}

// SetClock replaces the time source.
func (n *Notices) SetClock(now func() time.Time) {
	n.now = now
}

func (n *Notices) Info(msg string) {
	n.add(NoticeInfo, msg, InfoNoticeFor)
}

func (n *Notices) Success(msg string) {
	n.add(NoticeSuccess, msg, InfoNoticeFor)
}

func (n *Notices) Error(msg string) {
	n.add(NoticeError, msg, ErrorNoticeFor)
}

// Active reports whether any notice is still showing.
func (n *Notices) Active() bool {
	return len(n.notices) > 0
}

func (n *Notices) add(kind NoticeKind, msg string, d time.Duration) {
	expires := n.now().Add(d)
	// The same message again restarts its timer instead of stacking.
	for _, existing := range n.notices {
		if existing.kind == kind && existing.message == msg {
			existing.expires = expires
			return
		}
	}
	if len(n.notices) >= maxNotices {
		n.notices = n.notices[1:]
	}
	n.notices = append(n.notices, &notice{
		kind:    kind,
		message: msg,
		expires: expires,
		width:   noticeWidth(msg),
	})
}

// Tick drops expired notices.
func (n *Notices) Tick() {
	now := n.now()
	alive := n.notices[:0]
	for _, nt := range n.notices {
		if now.Before(nt.expires) {
			alive = append(alive, nt)
		}
	}
	n.notices = alive
}

// noticeWidth is the box width for msg: icon, space, message, padding and border.
func noticeWidth(msg string) int {
	w := 2 + runewidth.StringWidth(msg) + 4
	return min(max(w, minNoticeWidth), maxNoticeWidth)
}

func noticeColor(kind NoticeKind) lipgloss.Color {
	switch kind {
	case NoticeSuccess:
		return ColorFoam
	case NoticeError:
		return ColorLove
	}
	return ColorIris
}

func noticeIcon(kind NoticeKind) string {
	switch kind {
	case NoticeSuccess:
		return "✓"
	case NoticeError:
		return "✗"
	}
	return "▸"
}

// View renders the notices stacked and right aligned within width.
func (n *Notices) View(width int) string {
	if len(n.notices) == 0 {
		return ""
	}
	rendered := make([]string, 0, len(n.notices))
	for _, nt := range n.notices {
		color := noticeColor(nt.kind)
		icon := lipgloss.NewStyle().Foreground(color).Render(noticeIcon(nt.kind))
		box := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(color).
			Foreground(ColorText).
			Padding(0, 1).
			Width(nt.width).
			Render(icon + " " + nt.message)
		rendered = append(rendered, box)
	}
	stack := lipgloss.JoinVertical(lipgloss.Right, rendered...)
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, stack)
}
