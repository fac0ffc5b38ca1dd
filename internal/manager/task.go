package manager

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Task is the handle for one asynchronous functional agent activation.
// Callers may wait on it or discard it; failures are logged either way.
type Task struct {
	ID        string
	Agent     string
	StartedAt time.Time

	cancel context.CancelCauseFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

func newTask(agent string, cancel context.CancelCauseFunc) *Task {
	return &Task{
		ID:        uuid.NewString(),
		Agent:     agent,
		StartedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// failedTask returns a task that finished before it started.
func failedTask(agent string, err error) *Task {
	t := newTask(agent, func(error) {})
	t.finish(err)
	return t
}

func (t *Task) finish(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
	close(t.done)
}

// Done is closed when the activation ends.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the activation error once Done is closed.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Wait blocks until the activation ends or ctx is done.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel asks the agent to stop. Wait then returns context.Canceled.
func (t *Task) Cancel() { t.cancel(nil) }

// dismiss ends the activation the way CmdGoBack does; Wait returns nil.
func (t *Task) dismiss() { t.cancel(errDismissed) }
