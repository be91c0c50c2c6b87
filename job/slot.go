package job

import (
	"context"

	"github.com/minecraftwithtwink/Modpack-Updater/log"
)

// Slot holds at most one outstanding job of a kind. A slot is busy from Start
// until its terminal event is drained or it is abandoned.
type Slot[T any] struct {
	kind Kind
	h    *Handle[T]
}

// NewSlot returns an idle slot for kind.
func NewSlot[T any](kind Kind) *Slot[T] {
	return &Slot[T]{kind: kind}
}

// Kind returns the slot's job kind.
func (s *Slot[T]) Kind() Kind { return s.kind }

// Busy reports whether a job is outstanding.
func (s *Slot[T]) Busy() bool { return s.h != nil }

// Start spawns fn. If a job is already outstanding, a mutating kind keeps it
// and Start returns false; a read-only kind drops it and starts fresh.
func (s *Slot[T]) Start(ctx context.Context, fn Func[T]) bool {
	if s.h != nil {
		if s.kind.Mutating() {
			log.WarningLog.Printf("ignoring %s request: one is already running", s.kind)
			return false
		}
		s.h.Drop()
	}
	s.h = Spawn(ctx, s.kind, fn)
	return true
}

// Abandon drops the outstanding job, if any, and reports whether there was one.
func (s *Slot[T]) Abandon() bool {
	if s.h == nil {
		return false
	}
	s.h.Drop()
	s.h = nil
	return true
}

// Drain hands every queued event to fn in order without blocking. The slot is
// cleared before fn sees a terminal event, so fn may Start a new job.
func (s *Slot[T]) Drain(fn func(Event[T])) {
	for s.h != nil {
		e, ok := s.h.TryRecv()
		if !ok {
			return
		}
		if e.Terminal() {
			s.h = nil
		}
		fn(e)
	}
}
