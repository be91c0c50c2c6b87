package gitsync

import (
	"fmt"
	"strings"
)

// Step names a stage of a synchronization run.
type Step string

const (
	StepOpen        Step = "open repository"
	StepRemote      Step = "configure remote"
	StepFetch       Step = "fetch from remote"
	StepAnalyze     Step = "analyze changes"
	StepFastForward Step = "apply fast-forward update"
	StepMerge       Step = "merge remote changes"
	StepCheckout    Step = "check out files"
	StepClean       Step = "clean managed directories"
	StepOverlay     Step = "apply default configurations"
	StepLFS         Step = "download large files"
)

// StepError wraps the cause of a failed run with the step that failed.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func stepErr(step Step, err error) error {
	if err == nil {
		return nil
	}
	return &StepError{Step: step, Err: err}
}

// ConflictError reports paths both sides changed incompatibly. No merge
// commit exists when it is returned.
type ConflictError struct {
	Paths []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("merge conflict detected in %s; please resolve manually", strings.Join(e.Paths, ", "))
}
