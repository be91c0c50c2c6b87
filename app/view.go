package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/minecraftwithtwink/Modpack-Updater/ui"
)

var (
	headingStyle = lipgloss.NewStyle().Foreground(ui.ColorIris).Bold(true)
	hintStyle    = lipgloss.NewStyle().Foreground(ui.ColorGold).Italic(true)
	errorStyle   = lipgloss.NewStyle().Foreground(ui.ColorLove)
	footerStyle  = lipgloss.NewStyle().Foreground(ui.ColorMuted)
)

func (m *home) View() string {
	if m.quitting {
		return ""
	}
	width := m.contentWidth()
	bodyHeight := max(m.termHeight-4, 0)

	body := m.body(width, bodyHeight)
	if hint := m.tutorial.step(m.fsm.Current(), m.browser).hint(); hint != "" && m.tutorial.welcomed {
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", hintStyle.Width(width).Render("Tip: "+hint))
	}
	body = lipgloss.NewStyle().Padding(1, 2).Render(body)
	if bodyHeight > 0 {
		body = lipgloss.NewStyle().Height(bodyHeight + 2).MaxHeight(bodyHeight + 2).Render(body)
	}

	m.statusBar.SetData(ui.StatusBarData{
		Version:  m.version,
		Instance: m.target,
		Branch:   m.branch,
		Activity: m.activity(),
		Update:   m.latestVersion,
	})

	top := m.statusBar.String()
	if notices := m.notices.View(m.termWidth); notices != "" {
		top = lipgloss.JoinVertical(lipgloss.Left, top, notices)
	}
	result := lipgloss.JoinVertical(lipgloss.Left,
		top,
		body,
		m.menu.String(),
	)
	return ui.FillBackground(result, m.termHeight)
}

// body renders the screen for the current state.
func (m *home) body(width, height int) string {
	if m.tutorial.active && !m.tutorial.welcomed {
		return ui.Dialog{
			Title:  "Welcome to the Modpack Updater",
			Body:   stepWelcome.hint(),
			Tone:   ui.ToneInfo,
			Footer: footerStyle.Render("enter start • s skip • esc close"),
		}.Render(width, height)
	}

	switch m.fsm.Current() {
	case StateCheckingDependencies:
		return m.bar.Waiting(m.progress.message)
	case StateConfirmDependencyInstall:
		return ui.Dialog{
			Title:  "Missing dependency",
			Body:   fmt.Sprintf("%s\n\nGit and Git LFS are needed to update your modpack. Install them now?", m.depsStatus),
			Tone:   ui.ToneWarning,
			Footer: footerStyle.Render("y install • n quit"),
		}.Render(width, height)
	case StateInstallingDependencies, StateProcessing:
		return m.progressView()
	case StateStartup:
		return ui.StartupMenu(m.history.Paths, m.startupCursor, width)
	case StateBrowsing:
		return m.browser.String()
	case StateAwaitingInput:
		var s strings.Builder
		s.WriteString(headingStyle.Render("Enter the path to your instance folder:"))
		s.WriteString("\n\n")
		s.WriteString(m.input.View())
		if m.inputErr != "" {
			s.WriteString("\n\n")
			s.WriteString(errorStyle.Render(m.inputErr))
		}
		return s.String()
	case StateInsideInstanceFolder:
		return ui.Dialog{
			Title: "You are inside an instance folder",
			Body: fmt.Sprintf("%s is an instance itself. Go up one level and select it from its parent folder.",
				m.browser.Dir()),
			Tone:   ui.ToneWarning,
			Footer: footerStyle.Render("← go up"),
		}.Render(width, height)
	case StateConfirmInvalidFolder:
		return ui.Dialog{
			Title:  "Not an instance folder",
			Body:   fmt.Sprintf("%s does not look like a modpack instance. An instance folder has both a mods and a config folder.", m.target),
			Tone:   ui.ToneWarning,
			Footer: footerStyle.Render("enter ok"),
		}.Render(width, height)
	case StateConfirmReinit:
		return ui.Dialog{
			Title: "Update this instance?",
			Body: fmt.Sprintf("%s\n\nThe instance will be brought up to date with the modpack. "+
				"Files you added to the managed folders are removed.", m.target),
			Tone:   ui.ToneInfo,
			Footer: footerStyle.Render("y continue • n cancel"),
		}.Render(width, height)
	case StateConfirmUpdate:
		return ui.Dialog{
			Title:  "Update available",
			Body:   fmt.Sprintf("Version %s of the updater is available (you have %s). Install it now? The updater restarts afterwards.", m.latestVersion, m.version),
			Tone:   ui.ToneInfo,
			Footer: footerStyle.Render("y update • n later"),
		}.Render(width, height)
	case StateFetchingChangelog, StateFetchingBranches:
		return m.bar.Waiting(m.progress.message)
	case StateViewingChangelog:
		return m.pager.String()
	case StateBranchSelection:
		return lipgloss.JoinVertical(lipgloss.Left,
			headingStyle.Render("Select a branch"),
			footerStyle.Render(m.target),
			"",
			m.branches.Render(width),
		)
	case StateFinished:
		return ui.Dialog{
			Title:  m.finishTitle,
			Body:   m.finishBody,
			Tone:   m.finishTone,
			Footer: footerStyle.Render("enter close • C copy message"),
		}.Render(width, height)
	}
	return ""
}

func (m *home) progressView() string {
	if m.progress.determinate {
		return m.bar.Bar(m.progress.message, m.progress.ratio)
	}
	return m.bar.Waiting(m.progress.message)
}

// activity names the job the status bar reports.
func (m *home) activity() string {
	switch {
	case m.jobs.sync.Busy():
		return "syncing"
	case m.jobs.install.Busy():
		return "installing"
	case m.jobs.branches.Busy():
		return "listing branches"
	case m.jobs.changelog.Busy():
		return "loading changelog"
	case m.jobs.deps.Busy():
		return "checking dependencies"
	case m.jobs.update.Busy():
		return "checking for updates"
	}
	return ""
}
