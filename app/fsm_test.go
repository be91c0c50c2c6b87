package app

import (
	"testing"

	"github.com/minecraftwithtwink/Modpack-Updater/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition_ValidTransitions(t *testing.T) {
	cases := []struct {
		from  State
		event Event
		to    State
	}{
		{StateCheckingDependencies, DepsOK, StateStartup},
		{StateCheckingDependencies, DepsMissing, StateConfirmDependencyInstall},
		{StateCheckingDependencies, JobFailed, StateFinished},
		{StateConfirmDependencyInstall, InstallStart, StateInstallingDependencies},
		{StateInstallingDependencies, InstallOK, StateStartup},
		{StateInstallingDependencies, JobFailed, StateFinished},
		{StateStartup, ShowBrowser, StateBrowsing},
		{StateStartup, ReinitRequested, StateConfirmReinit},
		{StateStartup, ChangelogStart, StateFetchingChangelog},
		{StateBrowsing, PathInputStart, StateAwaitingInput},
		{StateBrowsing, InvalidFolder, StateConfirmInvalidFolder},
		{StateBrowsing, UpdateAvailable, StateConfirmUpdate},
		{StateAwaitingInput, InsideInstance, StateInsideInstanceFolder},
		{StateInsideInstanceFolder, ShowBrowser, StateBrowsing},
		{StateConfirmReinit, BranchesStart, StateFetchingBranches},
		{StateFetchingBranches, BranchesReady, StateBranchSelection},
		{StateFetchingChangelog, ChangelogReady, StateViewingChangelog},
		{StateBranchSelection, SyncStart, StateProcessing},
		{StateProcessing, SyncDone, StateFinished},
		{StateProcessing, JobFailed, StateFinished},
	}
	for _, tc := range cases {
		t.Run(tc.from.String()+"_"+string(tc.event), func(t *testing.T) {
			result, err := ApplyTransition(tc.from, tc.event)
			require.NoError(t, err)
			assert.Equal(t, tc.to, result)
		})
	}
}

func TestTransition_InvalidTransitions(t *testing.T) {
	cases := []struct {
		from  State
		event Event
	}{
		{StateCheckingDependencies, ShowBrowser}, // deps first
		{StateConfirmDependencyInstall, DepsOK},  // answered by the user
		{StateStartup, SyncStart},                // needs a branch
		{StateProcessing, ShowStartup},           // a sync cannot be left
		{StateProcessing, ShowBrowser},           // a sync cannot be left
		{StateBranchSelection, BranchesReady},    // already listed
		{StateFinished, ShowStartup},             // terminal
		{StateConfirmUpdate, UpdateAvailable},    // already prompting
		{StateViewingChangelog, ChangelogStart},  // go back first
		{StateAwaitingInput, ReinitRequested},    // path opens the browser
	}
	for _, tc := range cases {
		t.Run(tc.from.String()+"_"+string(tc.event), func(t *testing.T) {
			next, err := ApplyTransition(tc.from, tc.event)
			assert.Error(t, err)
			assert.Equal(t, tc.from, next)
		})
	}
}

func TestTransition_EveryStateHasAnEntry(t *testing.T) {
	for s := StateCheckingDependencies; s <= StateFinished; s++ {
		_, ok := transitionTable[s]
		assert.True(t, ok, "state %s has no transition table entry", s)
	}
}

func TestInFlightStates_CanFailToFinished(t *testing.T) {
	for state := range inFlight {
		next, err := ApplyTransition(state, JobFailed)
		require.NoError(t, err, state.String())
		assert.Equal(t, StateFinished, next)
	}
}

func TestMachine_LeavingInFlightStateCallsOnLeave(t *testing.T) {
	m := newMachine(StateConfirmReinit)
	var left []job.Kind
	m.onLeave = func(k job.Kind) { left = append(left, k) }

	require.NoError(t, m.fire(BranchesStart))
	assert.Empty(t, left)

	require.NoError(t, m.fire(ShowBrowser))
	assert.Equal(t, StateBrowsing, m.Current())
	assert.Equal(t, []job.Kind{job.KindBranchList}, left)
}

func TestMachine_InvalidEventKeepsState(t *testing.T) {
	m := newMachine(StateProcessing)
	called := false
	m.onLeave = func(job.Kind) { called = true }

	err := m.fire(ShowStartup)
	assert.ErrorContains(t, err, "invalid transition")
	assert.Equal(t, StateProcessing, m.Current())
	assert.False(t, called)
}

func TestState_Idle(t *testing.T) {
	assert.True(t, StateStartup.Idle())
	assert.True(t, StateBrowsing.Idle())
	assert.False(t, StateProcessing.Idle())
	assert.False(t, StateConfirmUpdate.Idle())
}
