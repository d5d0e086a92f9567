// Package dispatch provides serial execution contexts. A Queue runs the
// functions handed to it one at a time, in the order they were dispatched,
// on a goroutine that it owns.
package dispatch

import (
	"sync"
)

// Dispatcher schedules fn to run on some execution context. Implementations
// decide where and when fn runs, but must never run it on the caller's stack
// unless documented otherwise.
type Dispatcher interface {
	Dispatch(fn func()) bool
}

// DispatcherFunc is a proxy type to make easier for users to implement Dispatcher
type DispatcherFunc func(fn func()) bool

func (f DispatcherFunc) Dispatch(fn func()) bool {
	return f(fn)
}

// Inline runs every function on the caller's goroutine. It's mostly useful for
// tests and for consumers that are safe to call from the capture goroutine.
var Inline Dispatcher = DispatcherFunc(func(fn func()) bool {
	fn()
	return true
})

// Queue is a serial, unbounded FIFO execution context. Dispatch never blocks.
type Queue struct {
	label string

	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	closed bool
	done   chan struct{}
}

// NewQueue creates a queue and starts its worker goroutine.
func NewQueue(label string) *Queue {
	q := Queue{
		label: label,
		done:  make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return &q
}

// Label returns the name given to the queue at creation.
func (q *Queue) Label() string {
	return q.label
}

// Dispatch appends fn to the queue. It reports false, and drops fn, if the
// queue has been closed.
func (q *Queue) Dispatch(fn func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.tasks = append(q.tasks, fn)
	q.cond.Signal()
	return true
}

// Close stops accepting new work, lets already queued functions run and waits
// for the worker to exit. Close must not be called from a function running on q.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()

	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)

	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closed {
			q.cond.Wait()
		}

		if len(q.tasks) == 0 {
			q.mu.Unlock()
			return
		}

		fn := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		fn()
	}
}
