package app

import "github.com/minecraftwithtwink/Modpack-Updater/keys"

// stateKeys lists the keys hinted in the bottom menu for each screen.
var stateKeys = map[State][]keys.KeyName{
	StateConfirmDependencyInstall: {keys.KeyYes, keys.KeyNo},
	StateStartup:                  {keys.KeyUp, keys.KeyDown, keys.KeyEnter, keys.KeyChangelog, keys.KeyQuit, keys.KeyPause},
	StateBrowsing:                 {keys.KeyEnter, keys.KeyRight, keys.KeyLeft, keys.KeyHome, keys.KeyFind, keys.KeyBack, keys.KeyQuit, keys.KeyPause},
	StateAwaitingInput:            {keys.KeySubmitPath, keys.KeyPaste, keys.KeyBack},
	StateInsideInstanceFolder:     {keys.KeyLeft},
	StateConfirmInvalidFolder:     {keys.KeyEnter},
	StateConfirmReinit:            {keys.KeyYes, keys.KeyNo},
	StateConfirmUpdate:            {keys.KeyYes, keys.KeyNo},
	StateFetchingChangelog:        {keys.KeyBack},
	StateViewingChangelog:         {keys.KeyUp, keys.KeyDown, keys.KeyBack},
	StateFetchingBranches:         {keys.KeyBack},
	StateBranchSelection:          {keys.KeyUp, keys.KeyDown, keys.KeyEnter, keys.KeyBack},
	StateFinished:                 {keys.KeyEnter, keys.KeyCopy},
}

// menuOptions returns the hints for the current screen. The tutorial adds its
// skip key, and the welcome screen hides everything else.
func (m *home) menuOptions() []keys.KeyName {
	if m.tutorial.active && !m.tutorial.welcomed {
		return []keys.KeyName{keys.KeyEnter, keys.KeyBack, keys.KeySkip}
	}
	options := append([]keys.KeyName(nil), stateKeys[m.fsm.Current()]...)
	if m.tutorial.active {
		options = append(options, keys.KeySkip)
	}
	return options
}

func (m *home) refreshMenu() {
	m.menu.SetOptions(m.menuOptions())
}
