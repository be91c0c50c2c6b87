package auditlog

import "time"

// EventKind identifies the type of audit event.
type EventKind string

// String returns the string representation of the EventKind.
func (k EventKind) String() string {
	return string(k)
}

// Job lifecycle events.
const (
	EventJobStarted   EventKind = "job_started"
	EventJobSucceeded EventKind = "job_succeeded"
	EventJobFailed    EventKind = "job_failed"
	EventJobAbandoned EventKind = "job_abandoned"
)

// Operational events.
const (
	EventDependencyInstall EventKind = "dependency_install"
	EventSelfUpdate        EventKind = "self_update"
	EventFSMError          EventKind = "fsm_error"
)

// Event is a single audit log entry.
type Event struct {
	ID        int64
	Kind      EventKind
	Timestamp time.Time
	JobKind   string // job.Kind string form, e.g. "sync"
	Instance  string // absolute instance path, empty for instance-less jobs
	Branch    string
	Message   string
	Level     string // info, warn, error
}
