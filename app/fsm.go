package app

import (
	"fmt"

	"github.com/minecraftwithtwink/Modpack-Updater/job"
)

// State is the screen the updater is on. Exactly one is current, and it only
// changes through machine.fire.
type State int

const (
	StateCheckingDependencies State = iota
	StateConfirmDependencyInstall
	StateInstallingDependencies
	// StateStartup lists recently updated instances.
	StateStartup
	// StateBrowsing is the folder browser.
	StateBrowsing
	// StateAwaitingInput is the typed path field.
	StateAwaitingInput
	StateConfirmReinit
	StateConfirmInvalidFolder
	// StateInsideInstanceFolder warns that the browser was opened inside an
	// instance rather than next to it.
	StateInsideInstanceFolder
	StateConfirmUpdate
	StateFetchingChangelog
	StateViewingChangelog
	StateFetchingBranches
	StateBranchSelection
	StateProcessing
	// StateFinished shows the final message; any dismissal quits.
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateCheckingDependencies:
		return "checking_dependencies"
	case StateConfirmDependencyInstall:
		return "confirm_dependency_install"
	case StateInstallingDependencies:
		return "installing_dependencies"
	case StateStartup:
		return "startup"
	case StateBrowsing:
		return "browsing"
	case StateAwaitingInput:
		return "awaiting_input"
	case StateConfirmReinit:
		return "confirm_reinit"
	case StateConfirmInvalidFolder:
		return "confirm_invalid_folder"
	case StateInsideInstanceFolder:
		return "inside_instance_folder"
	case StateConfirmUpdate:
		return "confirm_update"
	case StateFetchingChangelog:
		return "fetching_changelog"
	case StateViewingChangelog:
		return "viewing_changelog"
	case StateFetchingBranches:
		return "fetching_branches"
	case StateBranchSelection:
		return "branch_selection"
	case StateProcessing:
		return "processing"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Idle reports whether no screen-bound job or prompt is up, so a deferred
// update prompt may be shown.
func (s State) Idle() bool {
	return s == StateStartup || s == StateBrowsing
}

// Event is a transition trigger.
type Event string

const (
	DepsOK          Event = "deps_ok"
	DepsMissing     Event = "deps_missing"
	InstallStart    Event = "install_start"
	InstallOK       Event = "install_ok"
	JobFailed       Event = "job_failed"
	ShowStartup     Event = "show_startup"
	ShowBrowser     Event = "show_browser"
	PathInputStart  Event = "path_input_start"
	InsideInstance  Event = "inside_instance"
	InvalidFolder   Event = "invalid_folder"
	ReinitRequested Event = "reinit_requested"
	UpdateAvailable Event = "update_available"
	ChangelogStart  Event = "changelog_start"
	ChangelogReady  Event = "changelog_ready"
	BranchesStart   Event = "branches_start"
	BranchesReady   Event = "branches_ready"
	SyncStart       Event = "sync_start"
	SyncDone        Event = "sync_done"
)

// transitionTable defines all valid state transitions.
// Key: current state → event → new state.
var transitionTable = map[State]map[Event]State{
	StateCheckingDependencies: {
		DepsOK:      StateStartup,
		DepsMissing: StateConfirmDependencyInstall,
		JobFailed:   StateFinished,
	},
	StateConfirmDependencyInstall: {
		InstallStart: StateInstallingDependencies,
	},
	StateInstallingDependencies: {
		InstallOK: StateStartup,
		JobFailed: StateFinished,
	},
	StateStartup: {
		ShowBrowser:     StateBrowsing,
		ReinitRequested: StateConfirmReinit,
		InvalidFolder:   StateConfirmInvalidFolder,
		ChangelogStart:  StateFetchingChangelog,
		UpdateAvailable: StateConfirmUpdate,
	},
	StateBrowsing: {
		ShowStartup:     StateStartup,
		ShowBrowser:     StateBrowsing,
		PathInputStart:  StateAwaitingInput,
		ReinitRequested: StateConfirmReinit,
		InvalidFolder:   StateConfirmInvalidFolder,
		UpdateAvailable: StateConfirmUpdate,
	},
	StateAwaitingInput: {
		ShowBrowser:    StateBrowsing,
		InsideInstance: StateInsideInstanceFolder,
	},
	StateInsideInstanceFolder: {
		ShowBrowser: StateBrowsing,
	},
	StateConfirmInvalidFolder: {
		ShowBrowser: StateBrowsing,
		ShowStartup: StateStartup,
	},
	StateConfirmReinit: {
		BranchesStart: StateFetchingBranches,
		ShowBrowser:   StateBrowsing,
		ShowStartup:   StateStartup,
	},
	StateConfirmUpdate: {
		ShowBrowser: StateBrowsing,
		ShowStartup: StateStartup,
	},
	StateFetchingChangelog: {
		ChangelogReady: StateViewingChangelog,
		JobFailed:      StateFinished,
		ShowStartup:    StateStartup,
	},
	StateViewingChangelog: {
		ShowStartup: StateStartup,
	},
	StateFetchingBranches: {
		BranchesReady: StateBranchSelection,
		JobFailed:     StateFinished,
		ShowBrowser:   StateBrowsing,
		ShowStartup:   StateStartup,
	},
	StateBranchSelection: {
		SyncStart:   StateProcessing,
		ShowBrowser: StateBrowsing,
		ShowStartup: StateStartup,
	},
	StateProcessing: {
		SyncDone:  StateFinished,
		JobFailed: StateFinished,
	},
	StateFinished: {},
}

// ApplyTransition returns the new state for the given current state and event.
// Returns an error if the transition is not valid.
func ApplyTransition(current State, event Event) (State, error) {
	events, ok := transitionTable[current]
	if !ok {
		return current, fmt.Errorf("no transitions defined for state %q", current)
	}
	next, ok := events[event]
	if !ok {
		return current, fmt.Errorf("invalid transition: %q + %q", current, event)
	}
	return next, nil
}

// inFlight maps each state that waits on a job to that job's kind. A slot is
// busy exactly while the machine sits in its state.
var inFlight = map[State]job.Kind{
	StateCheckingDependencies:   job.KindDependencyCheck,
	StateInstallingDependencies: job.KindInstall,
	StateFetchingChangelog:      job.KindChangelog,
	StateFetchingBranches:       job.KindBranchList,
	StateProcessing:             job.KindSync,
}

// machine owns the current state. onLeave runs when a transition leaves a
// state that was waiting on a job.
type machine struct {
	state   State
	onLeave func(kind job.Kind)
}

func newMachine(initial State) *machine {
	return &machine{state: initial}
}

// fire applies event. An invalid event leaves the state unchanged.
func (m *machine) fire(event Event) error {
	next, err := ApplyTransition(m.state, event)
	if err != nil {
		return err
	}
	prev := m.state
	m.state = next
	if kind, ok := inFlight[prev]; ok && m.onLeave != nil {
		if other, busy := inFlight[next]; !busy || other != kind {
			m.onLeave(kind)
		}
	}
	return nil
}

// Current returns the current state.
func (m *machine) Current() State { return m.state }
