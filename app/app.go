package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/minecraftwithtwink/Modpack-Updater/changelog"
	"github.com/minecraftwithtwink/Modpack-Updater/config"
	"github.com/minecraftwithtwink/Modpack-Updater/config/auditlog"
	"github.com/minecraftwithtwink/Modpack-Updater/deps"
	"github.com/minecraftwithtwink/Modpack-Updater/log"
	"github.com/minecraftwithtwink/Modpack-Updater/ui"
	"github.com/minecraftwithtwink/Modpack-Updater/update"
	"github.com/muesli/termenv"
)

// Outcome is what the caller does once the TUI has exited.
type Outcome struct {
	// Path is the instance a sync was started for, empty when none was.
	Path string
	// PerformUpdate is set when the user accepted a self-update.
	PerformUpdate bool
}

// Run is the main entrypoint into the application.
func Run(ctx context.Context, cfg *config.Config, version string) (Outcome, error) {
	// Set the terminal's default background to the theme base color so every
	// ANSI reset and unstyled cell falls back to it instead of black.
	restore := ui.SetTerminalBackground(ui.ColorBase)
	defer restore()

	history, err := config.LoadHistory()
	if err != nil {
		return Outcome{}, err
	}

	audit := auditlog.NopLogger()
	if cfg.IsAuditEnabled() {
		if dir, err := config.GetConfigDir(); err == nil {
			if l, err := auditlog.Open(dir); err == nil {
				audit = l
			} else {
				log.WarningLog.Printf("audit log disabled: %v", err)
			}
		}
	}
	defer audit.Close()

	cwd, err := os.Getwd()
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to get current directory: %w", err)
	}

	h := newHome(ctx, options{
		services: DefaultServices(cfg, version, changelog.StyleFor(termenv.EnvColorProfile())),
		history:  history,
		audit:    audit,
		version:  version,
		poll:     cfg.PollInterval(),
		cwd:      cwd,
		tutorial: config.ShouldStartTutorial(history),
	})
	p := tea.NewProgram(h, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return Outcome{}, err
	}
	return h.outcome(), nil
}

// options carries everything newHome needs from outside the model.
type options struct {
	services Services
	history  *config.History
	audit    auditlog.Logger
	player   Player
	version  string
	poll     time.Duration
	// cwd is where the browser opens from the startup screen.
	cwd      string
	tutorial bool

	readClipboard  func() (string, error)
	writeClipboard func(string) error
}

type home struct {
	ctx context.Context

	// -- Collaborators --

	services Services
	jobs     slots
	history  *config.History
	audit    auditlog.Logger
	player   Player
	version  string
	poll     time.Duration
	cwd      string

	readClipboard  func() (string, error)
	writeClipboard func(string) error

	// -- State --

	fsm *machine
	// returnTo is the idle screen a dialog goes back to.
	returnTo State
	// startupCursor indexes history; len(history) is the browse entry.
	startupCursor int
	// target is the instance folder chosen for the next sync.
	target string
	branch string
	// confirmed is the folder a sync was started for.
	confirmed string

	depsStatus    deps.Status
	pendingUpdate *update.Status
	// latestVersion is kept after the prompt is dismissed, for the status bar.
	latestVersion string
	performUpdate bool

	progress progress
	// inputErr is shown under the path field after a bad submit.
	inputErr string

	finishTitle string
	finishBody  string
	finishTone  ui.Tone

	tutorial tutorial
	quitting bool

	// -- UI Components --

	spinner   spinner.Model
	menu      *ui.Menu
	statusBar *ui.StatusBar
	bar       *ui.Progress
	browser   *ui.Browser
	branches  *ui.Choice
	pager     *ui.Pager
	input     textinput.Model
	notices   *ui.Notices

	// Terminal dimensions for the global background fill.
	termWidth  int
	termHeight int
}

func newHome(ctx context.Context, opts options) *home {
	h := &home{
		ctx:            ctx,
		services:       opts.services,
		jobs:           newSlots(),
		history:        opts.history,
		audit:          opts.audit,
		player:         opts.player,
		version:        opts.version,
		poll:           opts.poll,
		cwd:            opts.cwd,
		readClipboard:  opts.readClipboard,
		writeClipboard: opts.writeClipboard,
		fsm:            newMachine(StateCheckingDependencies),
		returnTo:       StateStartup,
		tutorial:       tutorial{active: opts.tutorial},
		spinner:        spinner.New(spinner.WithSpinner(spinner.Dot)),
		menu:           ui.NewMenu(),
		statusBar:      ui.NewStatusBar(),
		browser:        ui.NewBrowser(),
		branches:       ui.NewChoice(nil),
		pager:          ui.NewPager(),
		notices:        ui.NewNotices(),
	}
	if h.audit == nil {
		h.audit = auditlog.NopLogger()
	}
	if h.player == nil {
		h.player = nopPlayer{}
	}
	if h.poll <= 0 {
		h.poll = 10 * time.Millisecond
	}
	if h.readClipboard == nil {
		h.readClipboard = clipboard.ReadAll
	}
	if h.writeClipboard == nil {
		h.writeClipboard = clipboard.WriteAll
	}
	h.bar = ui.NewProgress(&h.spinner)
	h.input = textinput.New()
	h.input.Placeholder = "/path/to/instance"
	h.input.Prompt = "› "
	h.fsm.onLeave = h.abandoned
	h.refreshMenu()
	return h
}

func (m *home) Init() tea.Cmd {
	m.startDepsCheck()
	m.startUpdateCheck()
	return tea.Batch(
		m.spinner.Tick,
		m.pollCmd(),
	)
}

func (m *home) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case pollMsg:
		m.drain()
		cmd = m.pollCmd()
	case keyupMsg:
		m.menu.ClearKeydown()
	case noticeTickMsg:
		m.notices.Tick()
		if m.notices.Active() {
			cmd = m.noticeCmd()
		}
	case tea.KeyMsg:
		cmd = m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.updateHandleWindowSizeEvent(msg)
	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
	}
	m.refreshMenu()
	return m, cmd
}

// updateHandleWindowSizeEvent sets the sizes of the components.
// The components will try to render inside their bounds.
func (m *home) updateHandleWindowSizeEvent(msg tea.WindowSizeMsg) {
	m.termWidth = msg.Width
	m.termHeight = msg.Height

	// status bar and menu take one row each, plus a blank row around the body
	bodyHeight := max(msg.Height-4, 3)
	width := m.contentWidth()
	m.statusBar.SetSize(msg.Width)
	m.menu.SetSize(msg.Width, 1)
	m.bar.SetWidth(width)
	m.browser.SetSize(width, bodyHeight-2)
	m.pager.SetSize(width, bodyHeight)
	m.input.Width = max(width-4, 10)
}

// contentWidth is the width the body renders into.
func (m *home) contentWidth() int {
	if m.termWidth <= 0 {
		return 80
	}
	return max(m.termWidth-4, 20)
}

// fire applies event to the machine. An invalid event is logged and
// recorded, and the state stays as it was.
func (m *home) fire(event Event) bool {
	from := m.fsm.Current()
	if err := m.fsm.fire(event); err != nil {
		log.ErrorLog.Printf("%v", err)
		m.audit.Emit(auditlog.NewEvent(auditlog.EventFSMError, "", err.Error(), auditlog.WithLevel("error")))
		return false
	}
	log.InfoLog.Printf("state %s -> %s (%s)", from, m.fsm.Current(), event)
	if m.fsm.Current().Idle() {
		m.returnTo = m.fsm.Current()
		m.offerUpdate()
	}
	return true
}

// back leaves a dialog for the idle screen it was opened from.
func (m *home) back() {
	if m.returnTo == StateBrowsing {
		m.fire(ShowBrowser)
		return
	}
	m.fire(ShowStartup)
}

// offerUpdate shows a parked update prompt once nothing else needs the screen.
func (m *home) offerUpdate() {
	if m.pendingUpdate == nil || m.tutorial.active || m.jobs.busy() || !m.fsm.Current().Idle() {
		return
	}
	m.latestVersion = m.pendingUpdate.Version
	if m.fire(UpdateAvailable) {
		m.pendingUpdate = nil
	}
}

// finish shows the final message. Any dismissal quits.
func (m *home) finish(event Event, title, body string) {
	m.finishTitle = title
	m.finishBody = body
	m.finishTone = ui.ToneError
	if event == SyncDone {
		m.finishTone = ui.ToneSuccess
	}
	m.fire(event)
}

func (m *home) handleQuit() tea.Cmd {
	m.quitting = true
	m.jobs.abandonAll()
	return tea.Quit
}

func (m *home) outcome() Outcome {
	return Outcome{Path: m.confirmed, PerformUpdate: m.performUpdate}
}

type keyupMsg struct{}

type noticeTickMsg struct{}

// noticeCmd schedules the next expiry check while notices are showing.
func (m *home) noticeCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return noticeTickMsg{}
	})
}
