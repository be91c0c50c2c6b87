package app

import (
	"github.com/minecraftwithtwink/Modpack-Updater/config"
	"github.com/minecraftwithtwink/Modpack-Updater/internal/instance"
	"github.com/minecraftwithtwink/Modpack-Updater/log"
)

// tutorialStep is the hint the first-run tutorial is showing.
type tutorialStep int

const (
	stepNone tutorialStep = iota
	stepWelcome
	stepStartupMenu
	stepFileBrowserNav
	stepInsideInstanceFolder
	stepFileBrowserSelect
	stepInvalidSelection
	stepFileBrowserConfirm
)

// tutorial walks a first-time user through finding their instance. After the
// welcome screen it follows the user around instead of driving them: the
// hint is picked from whatever screen is showing.
type tutorial struct {
	active bool
	// welcomed is set once the welcome screen is dismissed with Enter.
	welcomed bool
}

// step picks the hint for state. The browser decides between the browsing
// hints.
func (t tutorial) step(state State, browser browserView) tutorialStep {
	if !t.active {
		return stepNone
	}
	if !t.welcomed {
		return stepWelcome
	}
	switch state {
	case StateStartup:
		return stepStartupMenu
	case StateInsideInstanceFolder:
		return stepInsideInstanceFolder
	case StateConfirmInvalidFolder:
		return stepInvalidSelection
	case StateBrowsing:
		if browser.Marked() != "" {
			return stepFileBrowserConfirm
		}
		if cur, ok := browser.Current(); ok && instance.IsValid(cur) {
			return stepFileBrowserSelect
		}
		return stepFileBrowserNav
	}
	return stepNone
}

// browserView is the part of ui.Browser the tutorial reads.
type browserView interface {
	Current() (string, bool)
	Marked() string
}

var tutorialHints = map[tutorialStep]string{
	stepWelcome: "Welcome! This tool keeps your modpack instance up to date. " +
		"The next screens show you how to find your instance folder. " +
		"Press Enter to start, s to skip the tutorial for good, or Esc to close it for now.",
	stepStartupMenu: "Instances you updated before are listed here. " +
		"Pick \"Browse for an instance folder...\" to look for a new one.",
	stepFileBrowserNav: "Use ↑/↓ to move, → to open a folder and ← to go back up. " +
		"Instance folders are highlighted. Press ctrl+f to type a path instead.",
	stepInsideInstanceFolder: "You are inside an instance folder. Go up one level with ← and select the folder itself.",
	stepFileBrowserSelect:    "This looks like an instance. Press Enter to select it.",
	stepInvalidSelection:     "An instance folder contains both a mods and a config folder. Try another one.",
	stepFileBrowserConfirm:   "Press Enter again to confirm, or Esc to pick something else.",
}

func (s tutorialStep) hint() string {
	return tutorialHints[s]
}

// completeTutorial ends the tutorial for good.
func (m *home) completeTutorial() {
	if !m.tutorial.active {
		return
	}
	m.tutorial.active = false
	if err := config.MarkTutorialCompleted(m.history); err != nil {
		log.WarningLog.Printf("failed to save tutorial flag: %v", err)
	}
	m.offerUpdate()
}

// dismissTutorial hides the tutorial for this session only.
func (m *home) dismissTutorial() {
	m.tutorial.active = false
	m.offerUpdate()
}
