package auditlog

import "time"

// QueryFilter specifies criteria for querying audit events.
type QueryFilter struct {
	Instance string
	JobKind  string
	Kinds    []EventKind
	Limit    int
	After    time.Time
}

// Logger is the interface for emitting and querying audit events.
type Logger interface {
	Emit(event Event)
	Query(filter QueryFilter) ([]Event, error)
	Close() error
}

// EventOption is a functional option for configuring optional Event fields.
type EventOption func(*Event)

// WithInstance sets the Instance field on the event.
func WithInstance(path string) EventOption {
	return func(e *Event) { e.Instance = path }
}

// WithBranch sets the Branch field on the event.
func WithBranch(branch string) EventOption {
	return func(e *Event) { e.Branch = branch }
}

// WithLevel sets the Level field on the event (info, warn, error).
func WithLevel(level string) EventOption {
	return func(e *Event) { e.Level = level }
}

// NewEvent builds an event of kind for a job kind, applying opts.
func NewEvent(kind EventKind, jobKind, message string, opts ...EventOption) Event {
	e := Event{Kind: kind, JobKind: jobKind, Message: message}
	for _, opt := range opts {
		opt(&e)
	}
	if e.Level == "" && kind == EventJobFailed {
		e.Level = "error"
	}
	return e
}

// nopLogger is a no-op Logger used when auditing is disabled.
type nopLogger struct{}

// NopLogger returns a Logger that discards all events.
func NopLogger() Logger {
	return &nopLogger{}
}

func (n *nopLogger) Emit(_ Event) {}

func (n *nopLogger) Query(_ QueryFilter) ([]Event, error) {
	return nil, nil
}

func (n *nopLogger) Close() error {
	return nil
}
