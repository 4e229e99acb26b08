package worker

import "container/heap"

// taskHeap implements container/heap.Interface for *Task,
// sorted by deadline (earliest first), ties broken by submission order.
type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}

	return h[i].deadline.Before(h[j].deadline)
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) {
	*h = append(*h, x.(*Task))
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]

	return x
}

// removeCancelled drops every cancelled task and restores the heap invariant.
// Returns the number of tasks removed.
func (h *taskHeap) removeCancelled() int {
	kept := (*h)[:0]
	removed := 0
	for _, t := range *h {
		if t.state.Load() == taskCancelled {
			removed++

			continue
		}
		kept = append(kept, t)
	}
	for i := len(kept); i < len(*h); i++ {
		(*h)[i] = nil
	}
	*h = kept
	if removed > 0 {
		heap.Init(h)
	}

	return removed
}
