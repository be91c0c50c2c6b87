package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/minecraftwithtwink/Modpack-Updater/changelog"
	"github.com/minecraftwithtwink/Modpack-Updater/cmd"
	"github.com/minecraftwithtwink/Modpack-Updater/config"
	"github.com/minecraftwithtwink/Modpack-Updater/config/auditlog"
	"github.com/minecraftwithtwink/Modpack-Updater/deps"
	"github.com/minecraftwithtwink/Modpack-Updater/gitsync"
	"github.com/minecraftwithtwink/Modpack-Updater/internal/sentry"
	"github.com/minecraftwithtwink/Modpack-Updater/job"
	"github.com/minecraftwithtwink/Modpack-Updater/log"
	"github.com/minecraftwithtwink/Modpack-Updater/update"
)

// Services builds the worker for each job kind. Tests swap in fakes.
type Services struct {
	CheckDeps    job.Func[deps.Status]
	InstallDeps  job.Func[deps.Status]
	CheckUpdate  job.Func[update.Status]
	ListBranches job.Func[[]string]
	// Changelog renders for the given terminal width.
	Changelog func(width int) job.Func[string]
	Sync      func(target gitsync.Target) job.Func[gitsync.Summary]
}

// DefaultServices wires the real workers. style is the changelog's glamour
// style, resolved before the program takes over the terminal.
func DefaultServices(cfg *config.Config, version, style string) Services {
	checker := deps.NewChecker(cmd.MakeExecutor())
	client := update.NewClient(version)
	return Services{
		CheckDeps:   checker.Check,
		InstallDeps: checker.Install,
		CheckUpdate: client.Check,
		ListBranches: func(ctx context.Context, r job.Reporter) ([]string, error) {
			r.Update("Fetching branches...", 0)
			return gitsync.ListRemoteBranches(ctx, gitsync.UpstreamURL)
		},
		Changelog: func(width int) job.Func[string] {
			return changelog.NewFetcher(changelog.WithWidth(width), changelog.WithStyle(style)).Run
		},
		Sync: func(target gitsync.Target) job.Func[gitsync.Summary] {
			return gitsync.New(target.Path, target.Branch, gitsync.WithLFS(cfg.IsLFSEnabled())).Run
		},
	}
}

// slots holds one job slot per kind.
type slots struct {
	deps      *job.Slot[deps.Status]
	install   *job.Slot[deps.Status]
	update    *job.Slot[update.Status]
	branches  *job.Slot[[]string]
	changelog *job.Slot[string]
	sync      *job.Slot[gitsync.Summary]
}

func newSlots() slots {
	return slots{
		deps:      job.NewSlot[deps.Status](job.KindDependencyCheck),
		install:   job.NewSlot[deps.Status](job.KindInstall),
		update:    job.NewSlot[update.Status](job.KindUpdateCheck),
		branches:  job.NewSlot[[]string](job.KindBranchList),
		changelog: job.NewSlot[string](job.KindChangelog),
		sync:      job.NewSlot[gitsync.Summary](job.KindSync),
	}
}

// abandon drops the outstanding job of kind.
func (s slots) abandon(kind job.Kind) bool {
	switch kind {
	case job.KindDependencyCheck:
		return s.deps.Abandon()
	case job.KindInstall:
		return s.install.Abandon()
	case job.KindUpdateCheck:
		return s.update.Abandon()
	case job.KindBranchList:
		return s.branches.Abandon()
	case job.KindChangelog:
		return s.changelog.Abandon()
	case job.KindSync:
		return s.sync.Abandon()
	}
	return false
}

func (s slots) abandonAll() {
	for _, k := range []job.Kind{job.KindDependencyCheck, job.KindInstall, job.KindUpdateCheck, job.KindBranchList, job.KindChangelog, job.KindSync} {
		s.abandon(k)
	}
}

// busy reports whether any job other than the background update check is
// outstanding.
func (s slots) busy() bool {
	return s.deps.Busy() || s.install.Busy() || s.branches.Busy() || s.changelog.Busy() || s.sync.Busy()
}

// pollMsg drives the non-blocking drain of every job slot.
type pollMsg struct{}

func (m *home) pollCmd() tea.Cmd {
	return tea.Tick(m.poll, func(time.Time) tea.Msg { return pollMsg{} })
}

// progress is the latest update of the job bound to the current screen.
type progress struct {
	message string
	ratio   float64
	// determinate is set once the job reports a ratio above zero.
	determinate bool
}

func (p *progress) set(message string, ratio float64) {
	if message != "" {
		p.message = message
	}
	p.ratio = ratio
	if ratio > 0 {
		p.determinate = true
	}
}

func (p *progress) reset(message string) {
	*p = progress{message: message}
}

// drain hands every queued job event to its handler. The update check runs
// behind every screen; the other jobs only reach their handler while the
// screen waiting on them is current.
func (m *home) drain() {
	m.jobs.deps.Drain(routed(m, job.KindDependencyCheck, m.onDepsEvent))
	m.jobs.install.Drain(routed(m, job.KindInstall, m.onInstallEvent))
	m.jobs.update.Drain(m.onUpdateEvent)
	m.jobs.branches.Drain(routed(m, job.KindBranchList, m.onBranchesEvent))
	m.jobs.changelog.Drain(routed(m, job.KindChangelog, m.onChangelogEvent))
	m.jobs.sync.Drain(routed(m, job.KindSync, m.onSyncEvent))
}

// bound reports whether the current screen waits on a job of kind.
func (m *home) bound(kind job.Kind) bool {
	k, ok := inFlight[m.fsm.Current()]
	return ok && k == kind
}

// routed wraps fn so events of a job that outlived its screen are dropped.
func routed[T any](m *home, kind job.Kind, fn func(job.Event[T])) func(job.Event[T]) {
	return func(e job.Event[T]) {
		if m.bound(kind) {
			fn(e)
			return
		}
		if e.Terminal() {
			log.WarningLog.Printf("%s job finished off screen (state %s): dropped %s", kind, m.fsm.Current(), e.Type)
		}
	}
}

// -- starting jobs --

func (m *home) started(kind job.Kind, message string) {
	m.progress.reset(message)
	m.emit(auditlog.EventJobStarted, kind, message)
	sentry.JobBreadcrumb(kind.String(), message)
	log.InfoLog.Printf("%s job started", kind)
}

func (m *home) startDepsCheck() {
	if m.jobs.deps.Start(m.ctx, m.services.CheckDeps) {
		m.started(job.KindDependencyCheck, "Checking dependencies...")
	}
}

func (m *home) startInstall() {
	if m.jobs.install.Start(m.ctx, m.services.InstallDeps) {
		m.started(job.KindInstall, "Installing dependencies...")
	}
}

func (m *home) startUpdateCheck() {
	// the update check runs behind every other screen, so it leaves progress alone
	if m.jobs.update.Start(m.ctx, m.services.CheckUpdate) {
		m.emit(auditlog.EventJobStarted, job.KindUpdateCheck, "Checking for updates...")
	}
}

func (m *home) startBranches() {
	if m.jobs.branches.Start(m.ctx, m.services.ListBranches) {
		m.started(job.KindBranchList, "Fetching branches...")
	}
}

func (m *home) startChangelog() {
	if m.jobs.changelog.Start(m.ctx, m.services.Changelog(m.contentWidth())) {
		m.started(job.KindChangelog, "Fetching changelog...")
	}
}

func (m *home) startSync(target gitsync.Target) {
	if !m.jobs.sync.Start(m.ctx, m.services.Sync(target)) {
		return
	}
	m.branch = target.Branch
	m.confirmed = target.Path
	sentry.SetContext(filepath.Base(target.Path), target.Branch)
	m.started(job.KindSync, "Initializing...")
}

// -- terminal and progress events --

func (m *home) onDepsEvent(e job.Event[deps.Status]) {
	switch e.Type {
	case job.EventUpdate:
		m.progress.set(e.Message, e.Ratio)
	case job.EventFailure:
		m.failed(job.KindDependencyCheck, e.Err)
		m.finish(JobFailed, "Dependency check failed", fmt.Sprintf("Failed to check dependencies:\n\n%s", e.Message))
	case job.EventSuccess:
		m.succeeded(job.KindDependencyCheck, e.Value.String())
		m.depsStatus = e.Value
		if e.Value == deps.AllOk {
			m.fire(DepsOK)
			return
		}
		m.fire(DepsMissing)
	}
}

func (m *home) onInstallEvent(e job.Event[deps.Status]) {
	switch e.Type {
	case job.EventUpdate:
		m.progress.set(e.Message, e.Ratio)
	case job.EventSuccess:
		if e.Value != deps.AllOk {
			m.onInstallEvent(job.Failure[deps.Status](fmt.Errorf("%s is still not available after installation", e.Value.Tool())))
			return
		}
		m.succeeded(job.KindInstall, e.Value.String())
		m.emit(auditlog.EventDependencyInstall, job.KindInstall, "git and git-lfs installed")
		m.depsStatus = e.Value
		m.fire(InstallOK)
	case job.EventFailure:
		m.failed(job.KindInstall, e.Err)
		m.emit(auditlog.EventDependencyInstall, job.KindInstall, e.Message, auditlog.WithLevel("error"))
		m.finish(JobFailed, "Installation failed",
			fmt.Sprintf("Dependency installation failed:\n\n%s\n\nPlease install Git and Git LFS manually.", e.Message))
	}
}

func (m *home) onUpdateEvent(e job.Event[update.Status]) {
	switch e.Type {
	case job.EventFailure:
		m.failed(job.KindUpdateCheck, e.Err)
	case job.EventSuccess:
		m.succeeded(job.KindUpdateCheck, e.Value.String())
		switch e.Value.State {
		case update.Failed:
			log.WarningLog.Printf("update check failed: %v", e.Value.Err)
		case update.Available:
			status := e.Value
			m.pendingUpdate = &status
			m.offerUpdate()
		}
	}
}

func (m *home) onBranchesEvent(e job.Event[[]string]) {
	switch e.Type {
	case job.EventUpdate:
		m.progress.set(e.Message, e.Ratio)
	case job.EventSuccess:
		if len(e.Value) == 0 {
			m.onBranchesEvent(job.Failure[[]string](errors.New("the remote has no branches")))
			return
		}
		m.succeeded(job.KindBranchList, fmt.Sprintf("%d branches", len(e.Value)))
		m.setBranches(e.Value)
		m.fire(BranchesReady)
	case job.EventFailure:
		m.failed(job.KindBranchList, e.Err)
		m.finish(JobFailed, "Could not list branches", fmt.Sprintf("Failed to fetch branches:\n\n%s", e.Message))
	}
}

func (m *home) onChangelogEvent(e job.Event[string]) {
	switch e.Type {
	case job.EventUpdate:
		m.progress.set(e.Message, e.Ratio)
	case job.EventSuccess:
		m.succeeded(job.KindChangelog, "changelog rendered")
		m.pager.SetContent(e.Value)
		m.fire(ChangelogReady)
	case job.EventFailure:
		m.failed(job.KindChangelog, e.Err)
		m.finish(JobFailed, "Could not load the changelog", fmt.Sprintf("Failed to fetch changelog:\n\n%s", e.Message))
	}
}

func (m *home) onSyncEvent(e job.Event[gitsync.Summary]) {
	switch e.Type {
	case job.EventUpdate:
		m.progress.set(e.Message, e.Ratio)
	case job.EventSuccess:
		m.succeeded(job.KindSync, e.Value.Outcome.String())
		m.history.Add(e.Value.Target.Path)
		if err := m.history.Save(); err != nil {
			log.ErrorLog.Printf("failed to save history: %v", err)
		}
		m.finish(SyncDone, "Update complete", e.Message)
	case job.EventFailure:
		m.failed(job.KindSync, e.Err)
		m.finish(JobFailed, "Update failed", e.Message)
	}
}

func (m *home) succeeded(kind job.Kind, message string) {
	m.emit(auditlog.EventJobSucceeded, kind, message)
	sentry.JobBreadcrumb(kind.String(), message)
	log.InfoLog.Printf("%s job succeeded: %s", kind, message)
}

func (m *home) failed(kind job.Kind, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	m.emit(auditlog.EventJobFailed, kind, msg)
	sentry.JobBreadcrumb(kind.String(), msg)
	log.ErrorLog.Printf("%s job failed: %v", kind, err)
}

// abandoned runs when the machine leaves a job's waiting screen before the
// job finished.
func (m *home) abandoned(kind job.Kind) {
	if !m.jobs.abandon(kind) {
		return
	}
	m.emit(auditlog.EventJobAbandoned, kind, "left "+kind.String()+" screen")
	log.InfoLog.Printf("%s job abandoned", kind)
}

func (m *home) emit(kind auditlog.EventKind, jk job.Kind, message string, opts ...auditlog.EventOption) {
	if m.target != "" {
		opts = append(opts, auditlog.WithInstance(m.target))
	}
	if m.branch != "" && jk == job.KindSync {
		opts = append(opts, auditlog.WithBranch(m.branch))
	}
	m.audit.Emit(auditlog.NewEvent(kind, jk.String(), message, opts...))
}
