package worker

import (
	"sync/atomic"
	"time"
)

const (
	taskPending int32 = iota
	taskRunning
	taskDone
	taskCancelled
)

// Task is a unit of work queued on a Worker for a deadline.
type Task struct {
	deadline time.Time
	fn       func()
	seq      uint64
	state    atomic.Int32
	w        *Worker
}

// Deadline returns the time the task is due.
func (t *Task) Deadline() time.Time {
	return t.deadline
}

// Cancel abandons the task if it has not been dispatched yet.
//
// Cancelling a task that already ran, is running, or was already cancelled
// is a silent no-op.
//
// Returns:
//   - bool: true if this call prevented the task from running
func (t *Task) Cancel() bool {
	if !t.state.CompareAndSwap(taskPending, taskCancelled) {
		return false
	}
	if t.w != nil {
		t.w.notify()
	}

	return true
}

// Pending reports whether the task is still queued.
func (t *Task) Pending() bool {
	return t.state.Load() == taskPending
}

// Cancelled reports whether the task was abandoned before running.
func (t *Task) Cancelled() bool {
	return t.state.Load() == taskCancelled
}
