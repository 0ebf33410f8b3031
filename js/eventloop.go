package js

import (
	"sync"
)

// eventLoop manages the microtask and macrotask queues of a realm.
type eventLoop struct {
	microtasks []func()
	macrotasks []func()
	mu         sync.Mutex
}

// newEventLoop creates a new event loop.
func newEventLoop() *eventLoop {
	return &eventLoop{
		microtasks: make([]func(), 0),
		macrotasks: make([]func(), 0),
	}
}

// queueMicrotask adds a microtask to the queue.
// Microtasks are executed before the next macrotask.
func (el *eventLoop) queueMicrotask(fn func()) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.microtasks = append(el.microtasks, fn)
}

// queueMacrotask adds a macrotask to the queue.
func (el *eventLoop) queueMacrotask(fn func()) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.macrotasks = append(el.macrotasks, fn)
}

// drainMicrotasks runs microtasks until the queue is empty, including
// any queued while draining.
func (el *eventLoop) drainMicrotasks() {
	for {
		el.mu.Lock()
		if len(el.microtasks) == 0 {
			el.mu.Unlock()
			return
		}
		fn := el.microtasks[0]
		el.microtasks = el.microtasks[1:]
		el.mu.Unlock()

		fn()
	}
}

// runOnce processes one iteration of the event loop.
// It drains all microtasks, fires due timers, then executes one macrotask
// followed by its microtasks.
// Returns true if there are more events to process.
func (el *eventLoop) runOnce(r *Runtime) bool {
	el.drainMicrotasks()

	r.timers.process(r)
	el.drainMicrotasks()

	el.mu.Lock()
	if len(el.macrotasks) > 0 {
		fn := el.macrotasks[0]
		el.macrotasks = el.macrotasks[1:]
		el.mu.Unlock()

		fn()
		el.drainMicrotasks()
		return el.hasPending() || r.timers.hasPending()
	}
	el.mu.Unlock()

	return el.hasPending() || r.timers.hasPending()
}

// hasPending returns true if there are any pending tasks.
func (el *eventLoop) hasPending() bool {
	el.mu.Lock()
	defer el.mu.Unlock()
	return len(el.microtasks) > 0 || len(el.macrotasks) > 0
}

// clear removes all pending tasks.
func (el *eventLoop) clear() {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.microtasks = el.microtasks[:0]
	el.macrotasks = el.macrotasks[:0]
}
