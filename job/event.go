// Package job carries progress from background workers to the control loop.
//
// A worker reports through a Reporter and returns a value or an error; Spawn
// turns that return into exactly one terminal event. The control loop drains
// events with Handle.TryRecv, which never blocks.
package job

import "fmt"

// Kind identifies one of the background operations the updater runs.
type Kind int

const (
	KindDependencyCheck Kind = iota
	KindInstall
	KindUpdateCheck
	KindBranchList
	KindChangelog
	KindSync
)

func (k Kind) String() string {
	switch k {
	case KindDependencyCheck:
		return "dependency_check"
	case KindInstall:
		return "install"
	case KindUpdateCheck:
		return "update_check"
	case KindBranchList:
		return "branch_list"
	case KindChangelog:
		return "changelog"
	case KindSync:
		return "sync"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Mutating reports whether a job of this kind writes to disk. Mutating jobs
// are never replaced while in flight.
func (k Kind) Mutating() bool {
	return k == KindSync || k == KindInstall
}

// EventType tags an Event.
type EventType int

const (
	EventUpdate EventType = iota
	EventSuccess
	EventFailure
)

func (t EventType) String() string {
	switch t {
	case EventUpdate:
		return "update"
	case EventSuccess:
		return "success"
	case EventFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Event is one message on a job's progress channel. Update events carry a
// message and a ratio in [0,1]. Success carries the worker's value, Failure
// its error. Success and Failure are terminal.
type Event[T any] struct {
	Type    EventType
	Message string
	Ratio   float64
	Value   T
	Err     error
}

// Terminal reports whether no further events follow this one.
func (e Event[T]) Terminal() bool {
	return e.Type == EventSuccess || e.Type == EventFailure
}

// Update builds a non-terminal progress event. The ratio is clamped to [0,1].
func Update[T any](message string, ratio float64) Event[T] {
	return Event[T]{Type: EventUpdate, Message: message, Ratio: clamp(ratio)}
}

// Success builds a terminal success event. The message comes from the value
// when it implements fmt.Stringer.
func Success[T any](value T) Event[T] {
	msg := ""
	if s, ok := any(value).(fmt.Stringer); ok {
		msg = s.String()
	}
	return Event[T]{Type: EventSuccess, Message: msg, Ratio: 1, Value: value}
}

// Failure builds a terminal failure event from err.
func Failure[T any](err error) Event[T] {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Event[T]{Type: EventFailure, Message: msg, Err: err}
}

func clamp(r float64) float64 {
	switch {
	case r != r: // NaN
		return 0
	case r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}
