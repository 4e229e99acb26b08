// Package worker provides a single-goroutine delay queue.
//
// A Worker owns exactly one goroutine. Tasks are ordered by deadline in a
// min-heap and executed strictly one at a time, so two tasks submitted to the
// same Worker never overlap. This is the execution context a keep-alive
// Scheduler fires its heartbeat action on.
//
// # Cancellation
//
// Task.Cancel only succeeds while the task is still queued. A task that the
// worker has already dispatched cannot be recalled; it runs to completion even
// if Shutdown is called meanwhile. Cancel and Shutdown never block.
//
//	w := worker.New("conn-1", nil)
//	task := w.ScheduleAt(time.Now().Add(time.Second), ping)
//	task.Cancel()  // true: ping never runs
//	w.Shutdown()
package worker
