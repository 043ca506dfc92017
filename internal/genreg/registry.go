// Package genreg tracks in-flight generation tasks, at most one per user.
//
// Each chat turn registers a Task before calling the model; /stop_generation
// looks the task up by username and cancels it. The registry holds process-
// wide mutable state shared by all requests, so every map access happens
// under one mutex, which also makes the submit/cancel pair atomic: starting
// a new task for a user cancels any task it replaces instead of orphaning it.
//
// Task lifecycle: Pending -> Completed | Cancelled. Transitions are one-way;
// a task that completed cannot later report cancelled and vice versa.
package genreg

import (
	"context"
	"sync"
)

// State describes where a task is in its lifecycle.
type State int32

const (
	// Pending means the model call has not finished yet.
	Pending State = iota
	// Completed means the model produced a result (or failed terminally).
	Completed
	// Cancelled means the user stopped the task before completion.
	Cancelled
)

// Task is a handle on one in-flight generation operation.
//
// The owning request resolves the task by calling Finish (on model return)
// or observing Done (on cancellation). All methods are safe for concurrent
// use.
type Task struct {
	username string

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	state State
	done  chan struct{}
}

// Context returns the context governing the model call. It is cancelled when
// the task is cancelled.
func (t *Task) Context() context.Context { return t.ctx }

// Done returns a channel closed when the task is cancelled. A completed task
// never closes it.
func (t *Task) Done() <-chan struct{} { return t.done }

// State reports the task's current lifecycle state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Finish marks the task Completed. It reports false when the task was already
// cancelled, in which case the caller must discard the model output and serve
// the cancellation sentinel instead.
func (t *Task) Finish() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Pending {
		return false
	}
	t.state = Completed
	return true
}

// markCancelled flips the task to Cancelled and wakes waiters. No-op unless
// the task is still pending.
func (t *Task) markCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Pending {
		return false
	}
	t.state = Cancelled
	t.cancel()
	close(t.done)
	return true
}

// Registry maps usernames to their single in-flight task.
// The zero value is not usable; construct with NewRegistry.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*Task)}
}

// Begin registers a new pending task for username, derived from parent.
// If the user already has a pending task it is cancelled first, under the
// same lock, so the old model call observes cancellation rather than running
// orphaned.
func (r *Registry) Begin(parent context.Context, username string) *Task {
	ctx, cancel := context.WithCancel(parent)
	t := &Task{
		username: username,
		ctx:      ctx,
		cancel:   cancel,
		state:    Pending,
		done:     make(chan struct{}),
	}

	r.mu.Lock()
	if prev, ok := r.tasks[username]; ok {
		prev.markCancelled()
	}
	r.tasks[username] = t
	r.mu.Unlock()
	return t
}

// Cancel signals cancellation of username's in-flight task. It reports
// whether a pending task was actually cancelled; false means there was
// nothing to stop, which callers surface as informational, not an error.
func (r *Registry) Cancel(username string) bool {
	r.mu.Lock()
	t, ok := r.tasks[username]
	r.mu.Unlock()
	if !ok {
		return false
	}
	return t.markCancelled()
}

// Remove drops the task from the registry once its chat turn is over, but
// only if it is still the registered task for that user (a later Begin may
// have replaced it). The context is always released.
func (r *Registry) Remove(t *Task) {
	r.mu.Lock()
	if cur, ok := r.tasks[t.username]; ok && cur == t {
		delete(r.tasks, t.username)
	}
	r.mu.Unlock()
	t.cancel()
}

// Len reports the number of registered tasks. Intended for tests and
// diagnostics.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}
