// Package dispatch marshals work onto a single owning goroutine.
//
// State observed by a UI must only change on the goroutine that renders it.
// Background work posts closures through a Dispatcher and they run serially,
// in the order they were accepted.
package dispatch

import "context"

// Dispatcher queues fn for execution on the owning context. It returns false
// if the context has shut down and fn will never run.
type Dispatcher interface {
	Dispatch(fn func()) bool
}

// Func adapts a function to the Dispatcher interface.
type Func func(fn func()) bool

// Dispatch implements Dispatcher.
func (f Func) Dispatch(fn func()) bool {
	return f(fn)
}

// Loop runs a Queue on its own goroutine.
type Loop struct {
	queue   *Queue
	stopped chan struct{}
}

var _ Dispatcher = (*Loop)(nil)

// NewLoop starts a loop.
func NewLoop() *Loop {
	l := &Loop{
		queue:   NewQueue(),
		stopped: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.stopped)
	for {
		fn, ok := l.queue.Next(context.Background())
		if !ok {
			return
		}
		fn()
	}
}

// Dispatch implements Dispatcher. It never blocks.
func (l *Loop) Dispatch(fn func()) bool {
	return l.queue.Dispatch(fn)
}

// Sync blocks until all work accepted before the call has run. It returns
// false if the loop closed first. Must not be called from the loop itself.
func (l *Loop) Sync() bool {
	ran := make(chan struct{})
	if !l.Dispatch(func() { close(ran) }) {
		return false
	}
	select {
	case <-ran:
		return true
	case <-l.stopped:
		return false
	}
}

// Close stops the loop. Work still queued is discarded; work already
// running finishes first. Must not be called from the loop itself.
func (l *Loop) Close() {
	l.queue.Close()
	<-l.stopped
}
