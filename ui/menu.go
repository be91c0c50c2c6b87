package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/minecraftwithtwink/Modpack-Updater/keys"
)

var keyStyle = lipgloss.NewStyle().Foreground(ColorSubtle)

var descStyle = lipgloss.NewStyle().Foreground(ColorMuted)

var sepStyle = lipgloss.NewStyle().Foreground(ColorOverlay)

var actionGroupStyle = lipgloss.NewStyle().Foreground(ColorRose)

var separator = " • "
var verticalSeparator = " │ "

// systemKeys are rendered after a vertical separator, apart from the
// screen's own actions.
var systemKeys = map[keys.KeyName]bool{
	keys.KeyQuit:  true,
	keys.KeyPause: true,
	keys.KeySkip:  true,
}

// Menu is the key hint rail at the bottom of the screen.
type Menu struct {
	options       []keys.KeyName
	height, width int

	// keyDown is the key which is pressed. The default is -1.
	keyDown keys.KeyName
}

func NewMenu() *Menu {
	return &Menu{keyDown: -1}
}

// SetOptions replaces the hinted keys.
func (m *Menu) SetOptions(options []keys.KeyName) {
	m.options = options
}

func (m *Menu) Options() []keys.KeyName { return m.options }

func (m *Menu) Keydown(name keys.KeyName) {
	m.keyDown = name
}

func (m *Menu) ClearKeydown() {
	m.keyDown = -1
}

// SetSize sets the width of the window. The menu will be centered horizontally within this width.
func (m *Menu) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Menu) String() string {
	var actions, system []string
	for _, k := range m.options {
		help := keys.GlobalkeyBindings[k].Help()
		var (
			localKeyStyle    = keyStyle
			localDescStyle   = descStyle
			localActionStyle = actionGroupStyle
		)
		if m.keyDown == k {
			localKeyStyle = localKeyStyle.Underline(true)
			localDescStyle = localDescStyle.Underline(true)
			localActionStyle = localActionStyle.Underline(true)
		}
		if systemKeys[k] {
			system = append(system, localKeyStyle.Render(help.Key)+descStyle.Render(" ")+localDescStyle.Render(help.Desc))
		} else {
			actions = append(actions, localActionStyle.Render(help.Key+" "+help.Desc))
		}
	}

	var groups []string
	if len(actions) > 0 {
		groups = append(groups, strings.Join(actions, sepStyle.Render(separator)))
	}
	if len(system) > 0 {
		groups = append(groups, strings.Join(system, sepStyle.Render(separator)))
	}
	text := strings.Join(groups, sepStyle.Render(verticalSeparator))
	if m.width <= 0 {
		return text
	}
	return lipgloss.Place(m.width, max(m.height, 1), lipgloss.Center, lipgloss.Center, text)
}
