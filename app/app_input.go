package app

import (
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/minecraftwithtwink/Modpack-Updater/gitsync"
	"github.com/minecraftwithtwink/Modpack-Updater/internal/instance"
	"github.com/minecraftwithtwink/Modpack-Updater/keys"
	"github.com/minecraftwithtwink/Modpack-Updater/log"
)

const pathNotFound = "Error: Path not found or is not a directory."

func (m *home) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return m.handleQuit()
	}

	// The path field takes every key except the few it reacts to.
	if m.fsm.Current() == StateAwaitingInput {
		return m.handlePathInput(msg)
	}

	name, ok := keys.Lookup(msg.String())
	if !ok {
		return nil
	}
	var highlight tea.Cmd
	if slices.Contains(m.menu.Options(), name) {
		highlight = m.keydownCallback(name)
	}

	if m.tutorial.active {
		if cmd, handled := m.handleTutorialKey(name); handled {
			return tea.Batch(highlight, cmd)
		}
	}
	if name == keys.KeyPause && m.fsm.Current() != StateFinished {
		m.player.TogglePause()
		return highlight
	}
	return tea.Batch(highlight, m.handleStateKey(name))
}

// handleTutorialKey handles the keys the tutorial owns. Everything else falls
// through to the current screen, except on the welcome screen.
func (m *home) handleTutorialKey(name keys.KeyName) (tea.Cmd, bool) {
	switch name {
	case keys.KeySkip:
		m.completeTutorial()
		return nil, true
	case keys.KeyPause:
		return nil, false
	}
	if m.tutorial.welcomed {
		return nil, false
	}
	switch name {
	case keys.KeyEnter:
		m.tutorial.welcomed = true
		m.player.Confirm()
	case keys.KeyBack, keys.KeyQuit:
		m.player.Cancel()
		m.dismissTutorial()
	}
	return nil, true
}

func (m *home) handleStateKey(name keys.KeyName) tea.Cmd {
	switch m.fsm.Current() {
	case StateConfirmDependencyInstall:
		switch name {
		case keys.KeyYes:
			m.player.Confirm()
			if m.fire(InstallStart) {
				m.startInstall()
			}
		case keys.KeyNo, keys.KeyBack, keys.KeyQuit:
			return m.handleQuit()
		}
	case StateStartup:
		return m.handleStartupKey(name)
	case StateBrowsing:
		return m.handleBrowserKey(name)
	case StateInsideInstanceFolder:
		if name == keys.KeyLeft || name == keys.KeyBack {
			m.browserUp()
			m.fire(ShowBrowser)
		}
	case StateConfirmInvalidFolder:
		if name == keys.KeyEnter || name == keys.KeyBack {
			m.player.Cancel()
			m.browser.Unmark()
			m.back()
		}
	case StateConfirmReinit:
		switch name {
		case keys.KeyYes:
			m.player.Confirm()
			if m.fire(BranchesStart) {
				m.startBranches()
			}
		case keys.KeyNo, keys.KeyBack:
			m.player.Cancel()
			m.browser.Unmark()
			m.back()
		}
	case StateConfirmUpdate:
		switch name {
		case keys.KeyYes:
			m.performUpdate = true
			return m.handleQuit()
		case keys.KeyNo, keys.KeyBack:
			m.player.Cancel()
			m.back()
		}
	case StateFetchingChangelog:
		if name == keys.KeyBack {
			m.fire(ShowStartup)
		}
	case StateViewingChangelog:
		switch name {
		case keys.KeyUp:
			m.pager.ScrollUp()
		case keys.KeyDown:
			m.pager.ScrollDown()
		case keys.KeyBack, keys.KeyQuit:
			m.player.Cancel()
			m.fire(ShowStartup)
		}
	case StateFetchingBranches:
		if name == keys.KeyBack {
			m.player.Cancel()
			m.browser.Unmark()
			m.back()
		}
	case StateBranchSelection:
		return m.handleBranchKey(name)
	case StateFinished:
		switch name {
		case keys.KeyEnter, keys.KeyBack, keys.KeyQuit:
			return m.handleQuit()
		case keys.KeyCopy:
			if err := m.writeClipboard(m.finishBody); err != nil {
				log.WarningLog.Printf("failed to copy to clipboard: %v", err)
				m.notices.Error("Could not copy to clipboard")
				return m.noticeCmd()
			}
			m.notices.Success("Copied to clipboard")
			return m.noticeCmd()
		}
	}
	return nil
}

func (m *home) handleStartupKey(name keys.KeyName) tea.Cmd {
	paths := m.history.Paths
	switch name {
	case keys.KeyQuit, keys.KeyBack:
		return m.handleQuit()
	case keys.KeyUp:
		if m.startupCursor > 0 {
			m.startupCursor--
			m.player.Scroll()
		}
	case keys.KeyDown:
		if m.startupCursor < len(paths) {
			m.startupCursor++
			m.player.Scroll()
		}
	case keys.KeyChangelog:
		if m.fire(ChangelogStart) {
			m.startChangelog()
		}
	case keys.KeyEnter:
		m.player.Confirm()
		if m.startupCursor >= len(paths) {
			if err := m.browser.Open(m.cwd); err != nil {
				log.ErrorLog.Printf("failed to open browser: %v", err)
				m.notices.Error("Could not open " + m.cwd)
				return m.noticeCmd()
			}
			m.fire(ShowBrowser)
			return nil
		}
		m.choose(paths[m.startupCursor])
	}
	return nil
}

func (m *home) handleBrowserKey(name keys.KeyName) tea.Cmd {
	switch name {
	case keys.KeyQuit:
		return m.handleQuit()
	case keys.KeyUp:
		m.browser.Prev()
		m.player.Scroll()
	case keys.KeyDown:
		m.browser.Next()
		m.player.Scroll()
	case keys.KeyRight:
		if err := m.browser.In(); err != nil {
			log.WarningLog.Printf("%v", err)
		}
	case keys.KeyLeft:
		m.browserUp()
	case keys.KeyHome:
		if err := m.browser.Reset(); err != nil {
			log.WarningLog.Printf("%v", err)
		}
	case keys.KeyFind:
		if m.fire(PathInputStart) {
			m.inputErr = ""
			m.input.SetValue("")
			return m.input.Focus()
		}
	case keys.KeyEnter:
		cur, ok := m.browser.Current()
		if !ok {
			return nil
		}
		if m.browser.Marked() != cur {
			m.browser.Mark()
			m.player.Scroll()
			return nil
		}
		m.player.Confirm()
		m.choose(cur)
		if instance.IsValid(cur) {
			m.completeTutorial()
		}
	case keys.KeyBack:
		m.player.Cancel()
		if m.browser.Unmark() {
			return nil
		}
		m.history.Prune()
		m.startupCursor = 0
		m.fire(ShowStartup)
	}
	return nil
}

// choose asks to re-initialize path, or warns when it is not an instance.
func (m *home) choose(path string) {
	m.target = path
	if instance.IsValid(path) {
		m.fire(ReinitRequested)
		return
	}
	m.fire(InvalidFolder)
}

func (m *home) browserUp() {
	if err := m.browser.Up(); err != nil {
		log.WarningLog.Printf("%v", err)
	}
}

func (m *home) handleBranchKey(name keys.KeyName) tea.Cmd {
	switch name {
	case keys.KeyUp:
		m.branches.Prev()
		m.player.Scroll()
	case keys.KeyDown:
		m.branches.Next()
		m.player.Scroll()
	case keys.KeyEnter:
		cur, ok := m.branches.Current()
		if !ok {
			return nil
		}
		if marked, ok := m.branches.Marked(); !ok || marked != cur {
			m.branches.Mark()
			m.player.Scroll()
			return nil
		}
		m.player.Confirm()
		if m.fire(SyncStart) {
			m.startSync(gitsync.Target{Path: m.target, Branch: cur})
		}
	case keys.KeyBack:
		m.player.Cancel()
		if m.branches.Unmark() {
			return nil
		}
		m.browser.Unmark()
		m.back()
	}
	return nil
}

func (m *home) handlePathInput(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.input.Blur()
		m.fire(ShowBrowser)
		return nil
	case tea.KeyCtrlV:
		text, err := m.readClipboard()
		if err != nil {
			log.WarningLog.Printf("failed to read clipboard: %v", err)
			m.notices.Error("Could not read clipboard")
			return m.noticeCmd()
		}
		m.input.SetValue(m.input.Value() + text)
		m.input.CursorEnd()
		return nil
	case tea.KeyEnter:
		m.submitPath()
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// submitPath opens the browser at the typed folder.
func (m *home) submitPath() {
	path := instance.ParseInput(m.input.Value())
	if path == "" || !instance.IsDir(path) {
		m.inputErr = pathNotFound
		return
	}
	if err := m.browser.Open(path); err != nil {
		m.inputErr = err.Error()
		return
	}
	m.inputErr = ""
	m.input.Blur()
	if instance.IsValid(path) {
		m.fire(InsideInstance)
		return
	}
	m.fire(ShowBrowser)
}

// keydownCallback clears the menu option highlighting after 500ms.
func (m *home) keydownCallback(name keys.KeyName) tea.Cmd {
	m.menu.Keydown(name)
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
		case <-time.After(500 * time.Millisecond):
		}

		return keyupMsg{}
	}
}
