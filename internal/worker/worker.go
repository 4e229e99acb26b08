package worker

import (
	"container/heap"
	"sync"
	"time"
)

// Worker executes deadline tasks one at a time on a dedicated goroutine.
type Worker struct {
	name    string
	onPanic func(v any)
	after   <-chan struct{}

	mu    sync.Mutex
	queue taskHeap
	seq   uint64

	wakeCh   chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// New creates a worker and starts its goroutine.
//
// Parameters:
//   - name: Diagnostic name, usually the connection ID
//   - onPanic: Called with the recovered value when a task panics (may be nil)
//
// Returns:
//   - *Worker: A running worker; call Shutdown to release its goroutine
func New(name string, onPanic func(v any)) *Worker {
	return NewAfter(name, nil, onPanic)
}

// NewAfter creates a worker that runs no task before after is closed.
//
// Pass the Done channel of a predecessor that was shut down while a task was
// still running, so tasks of the two workers never overlap. Done of the new
// worker is not closed before after is. A nil after behaves like New.
func NewAfter(name string, after <-chan struct{}, onPanic func(v any)) *Worker {
	w := &Worker{
		name:    name,
		onPanic: onPanic,
		after:   after,
		wakeCh:  make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go w.run()

	return w
}

// Name returns the worker's diagnostic name.
func (w *Worker) Name() string {
	return w.name
}

// ScheduleAt queues fn to run at deadline. A deadline in the past runs as
// soon as the worker is free. Never blocks.
//
// After Shutdown the returned task is already cancelled and fn never runs.
func (w *Worker) ScheduleAt(deadline time.Time, fn func()) *Task {
	t := &Task{deadline: deadline, fn: fn, w: w}

	w.mu.Lock()
	if w.isStopped() {
		w.mu.Unlock()
		t.state.Store(taskCancelled)

		return t
	}
	w.seq++
	t.seq = w.seq
	heap.Push(&w.queue, t)
	w.mu.Unlock()

	w.notify()

	return t
}

// Pending returns the number of queued, not cancelled tasks.
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := 0
	for _, t := range w.queue {
		if t.state.Load() == taskPending {
			n++
		}
	}

	return n
}

// Shutdown stops the worker and cancels every queued task.
//
// It does not wait for a task that is already running; use Done for that.
// Calling Shutdown more than once is safe.
func (w *Worker) Shutdown() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		close(w.stopCh)
		for _, t := range w.queue {
			t.state.CompareAndSwap(taskPending, taskCancelled)
		}
		w.queue = nil
		w.mu.Unlock()
	})
}

// Done is closed once the worker goroutine has exited, which happens after
// Shutdown and after any in-flight task returns.
func (w *Worker) Done() <-chan struct{} {
	return w.doneCh
}

func (w *Worker) notify() {
	select {
	case w.wakeCh <- struct{}{}:
	default:
	}
}

// isStopped reports whether Shutdown has been called.
func (w *Worker) isStopped() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

func (w *Worker) run() {
	defer close(w.doneCh)

	// Waited for even after Shutdown, so Done keeps the ordering transitive
	// across a chain of workers.
	if w.after != nil {
		<-w.after
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		next, wait := w.next()
		if next != nil {
			w.execute(next)

			continue
		}

		var timerCh <-chan time.Time
		if wait > 0 {
			timer.Reset(wait)
			timerCh = timer.C
		}

		select {
		case <-w.stopCh:
			return
		case <-w.wakeCh:
			timer.Stop()
		case <-timerCh:
		}
	}
}

// next pops the head task if it is due. Otherwise it returns the time until
// the head is due, or zero when the queue is empty.
func (w *Worker) next() (*Task, time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isStopped() {
		return nil, 0
	}

	w.queue.removeCancelled()
	if len(w.queue) == 0 {
		return nil, 0
	}

	head := w.queue[0]
	wait := time.Until(head.deadline)
	if wait > 0 {
		return nil, wait
	}
	heap.Pop(&w.queue)

	return head, 0
}

func (w *Worker) execute(t *Task) {
	if w.isStopped() {
		t.state.CompareAndSwap(taskPending, taskCancelled)

		return
	}
	if !t.state.CompareAndSwap(taskPending, taskRunning) {
		return
	}
	defer t.state.Store(taskDone)

	defer func() {
		if r := recover(); r != nil && w.onPanic != nil {
			w.onPanic(r)
		}
	}()

	t.fn()
}
