package keys

import (
	"github.com/charmbracelet/bubbles/key"
)

type KeyName int

const (
	KeyUp KeyName = iota
	KeyDown
	KeyLeft  // Key for going to the parent folder
	KeyRight // Key for entering the highlighted folder
	KeyEnter
	KeyHome // Key for returning the browser to the folder it started in
	KeyBack // Esc: deselect, dismiss or go back one screen
	KeyQuit

	KeyYes
	KeyNo

	KeyFind      // Key for typing a folder path
	KeyPaste     // Key for pasting the clipboard into the path field
	KeyChangelog // Key for opening the changelog
	KeyPause     // Key for pausing the music
	KeySkip      // Key for skipping the tutorial
	KeyCopy      // Key for copying the result message

	// -- Special keybindings --

	KeySubmitPath // Enter inside the path field
)

// GlobalKeyStringsMap is a global, immutable map string to keybinding.
var GlobalKeyStringsMap = map[string]KeyName{
	"up":     KeyUp,
	"k":      KeyUp,
	"down":   KeyDown,
	"j":      KeyDown,
	"left":   KeyLeft,
	"h":      KeyLeft,
	"right":  KeyRight,
	"l":      KeyRight,
	"enter":  KeyEnter,
	"home":   KeyHome,
	"esc":    KeyBack,
	"q":      KeyQuit,
	"y":      KeyYes,
	"Y":      KeyYes,
	"n":      KeyNo,
	"N":      KeyNo,
	"ctrl+f": KeyFind,
	"ctrl+v": KeyPaste,
	"c":      KeyChangelog,
	"p":      KeyPause,
	"s":      KeySkip,
	"C":      KeyCopy,
}

// Lookup resolves a key string from a tea.KeyMsg.
func Lookup(s string) (KeyName, bool) {
	name, ok := GlobalKeyStringsMap[s]
	return name, ok
}

// GlobalkeyBindings is a global, immutable map of KeyName tot keybinding.
var GlobalkeyBindings = map[KeyName]key.Binding{
	KeyUp: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	KeyDown: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	KeyLeft: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "parent"),
	),
	KeyRight: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "open"),
	),
	KeyEnter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("↵", "select"),
	),
	KeyHome: key.NewBinding(
		key.WithKeys("home"),
		key.WithHelp("home", "reset"),
	),
	KeyBack: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	KeyQuit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
	KeyYes: key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "yes"),
	),
	KeyNo: key.NewBinding(
		key.WithKeys("n", "N"),
		key.WithHelp("n", "no"),
	),
	KeyFind: key.NewBinding(
		key.WithKeys("ctrl+f"),
		key.WithHelp("ctrl+f", "enter path"),
	),
	KeyPaste: key.NewBinding(
		key.WithKeys("ctrl+v"),
		key.WithHelp("ctrl+v", "paste"),
	),
	KeyChangelog: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "changelog"),
	),
	KeyPause: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "pause music"),
	),
	KeySkip: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "skip tutorial"),
	),
	KeyCopy: key.NewBinding(
		key.WithKeys("C"),
		key.WithHelp("C", "copy"),
	),

	// -- Special keybindings --

	KeySubmitPath: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "go to path"),
	),
}
