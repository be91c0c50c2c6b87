package job

import "sync"

// channel is an unbounded FIFO of events with a single producer side and a
// single consumer side. Sends never block. Once the consumer drops the
// channel, or once a terminal event has been queued, later sends vanish.
type channel[T any] struct {
	mu      sync.Mutex
	queue   []Event[T]
	dropped bool
	sealed  bool
	ready   chan struct{}
}

func newChannel[T any]() *channel[T] {
	return &channel[T]{ready: make(chan struct{}, 1)}
}

// send reports whether the event was queued.
func (c *channel[T]) send(e Event[T]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dropped || c.sealed {
		return false
	}
	c.queue = append(c.queue, e)
	if e.Terminal() {
		c.sealed = true
	}
	select {
	case c.ready <- struct{}{}:
	default:
	}
	return true
}

func (c *channel[T]) tryRecv() (Event[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero Event[T]
	if c.dropped || len(c.queue) == 0 {
		return zero, false
	}
	e := c.queue[0]
	c.queue[0] = zero
	c.queue = c.queue[1:]
	return e, true
}

func (c *channel[T]) drop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropped = true
	c.queue = nil
}

func (c *channel[T]) isDropped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}
