package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// SetTerminalBackground emits OSC 11 to set the terminal's default background
// color. Returns a function that restores the original default via OSC 111.
// Nothing is written when stdout is not a terminal.
func SetTerminalBackground(color lipgloss.Color) func() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return func() {}
	}
	return setTermBg(os.Stdout, string(color))
}

// setTermBg writes to the given writer instead of stdout.
func setTermBg(w io.Writer, hexColor string) func() {
	if hexColor == "" {
		return func() {}
	}
	// OSC 11 ; <color> ST sets the default background color
	fmt.Fprintf(w, "\033]11;%s\033\\", hexColor)

	return func() {
		// OSC 111 ST resets the default background to terminal's configured value
		fmt.Fprint(w, "\033]111\033\\")
	}
}
