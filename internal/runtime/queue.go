package runtime

import (
	"sync"

	"compotube/internal/model"
)

// task is one unit of loop work: an event to run through Update, or effects
// to execute as-is (failure notifications raised off the loop).
type task struct {
	event   model.Event
	effects []model.Effect
	direct  bool
}

// queue is an unbounded FIFO so that dispatching never blocks the caller.
type queue struct {
	mu    sync.Mutex
	items []task
	ready chan struct{}
}

func newQueue(capacity int) *queue {
	return &queue{
		items: make([]task, 0, capacity),
		ready: make(chan struct{}, 1),
	}
}

func (q *queue) push(t task) {
	q.mu.Lock()
	q.items = append(q.items, t)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *queue) pop() (task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return task{}, false
	}
	t := q.items[0]
	q.items[0] = task{}
	q.items = q.items[1:]
	return t, true
}
