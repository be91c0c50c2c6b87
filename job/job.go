package job

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/minecraftwithtwink/Modpack-Updater/log"
)

// Reporter is the sending half handed to a worker. Update never blocks and
// never fails; once nobody is listening the event is discarded.
type Reporter interface {
	Update(message string, ratio float64)
}

// ReporterFunc adapts a plain function to a Reporter.
type ReporterFunc func(message string, ratio float64)

func (f ReporterFunc) Update(message string, ratio float64) { f(message, ratio) }

// Discard is a Reporter that drops every update.
var Discard Reporter = ReporterFunc(func(string, float64) {})

// Func is the body of a job. It returns the value reported on success.
type Func[T any] func(ctx context.Context, r Reporter) (T, error)

type sender[T any] struct {
	ch *channel[T]
}

func (s sender[T]) Update(message string, ratio float64) {
	s.ch.send(Update[T](message, ratio))
}

// Handle is the receiving half of a running job. It is owned by exactly one
// goroutine, the control loop.
type Handle[T any] struct {
	kind   Kind
	ch     *channel[T]
	cancel context.CancelFunc
	done   chan struct{}
}

// Spawn starts fn on its own goroutine and returns the receiving handle.
// Exactly one terminal event is queued when fn returns, including when it
// panics. Cancelling ctx, or the handle, cancels the context fn sees.
func Spawn[T any](ctx context.Context, kind Kind, fn Func[T]) *Handle[T] {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle[T]{
		kind:   kind,
		ch:     newChannel[T](),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				log.ErrorLog.Printf("%s job panicked: %v\n%s", kind, r, debug.Stack())
				h.ch.send(Failure[T](fmt.Errorf("%s job crashed: %v", kind, r)))
			}
		}()

		value, err := fn(ctx, sender[T]{ch: h.ch})
		if err != nil {
			h.ch.send(Failure[T](err))
			return
		}
		h.ch.send(Success(value))
	}()

	return h
}

// Kind returns the job kind the handle was spawned with.
func (h *Handle[T]) Kind() Kind { return h.kind }

// TryRecv returns the next queued event without blocking.
func (h *Handle[T]) TryRecv() (Event[T], bool) {
	return h.ch.tryRecv()
}

// Ready is signalled after at least one event has been queued since the last
// signal. It is only a wake-up hint; TryRecv must still be used to drain.
func (h *Handle[T]) Ready() <-chan struct{} { return h.ch.ready }

// Done is closed once the worker goroutine has returned.
func (h *Handle[T]) Done() <-chan struct{} { return h.done }

// Cancel asks the worker to stop. Events already queued stay readable and the
// worker still produces its terminal event.
func (h *Handle[T]) Cancel() { h.cancel() }

// Drop cancels the worker and discards the receiver. Everything the worker
// sends afterwards, including its terminal event, is silently thrown away.
func (h *Handle[T]) Drop() {
	h.cancel()
	h.ch.drop()
}

// Dropped reports whether Drop has been called.
func (h *Handle[T]) Dropped() bool { return h.ch.isDropped() }

// Wait blocks until the terminal event arrives or ctx ends, invoking onUpdate
// for every Update in order. It exists for the headless commands; the
// interactive control loop never calls it.
func Wait[T any](ctx context.Context, h *Handle[T], onUpdate func(Event[T])) (Event[T], error) {
	for {
		for {
			e, ok := h.TryRecv()
			if !ok {
				break
			}
			if e.Terminal() {
				return e, nil
			}
			if onUpdate != nil {
				onUpdate(e)
			}
		}
		select {
		case <-ctx.Done():
			h.Drop()
			var zero Event[T]
			return zero, ctx.Err()
		case <-h.Ready():
		}
	}
}
