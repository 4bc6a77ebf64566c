package grid

import (
	"context"
	"sync"
)

// Queue runs tasks one at a time in the order they were dispatched.
// Dispatch never blocks, so a task may dispatch further tasks.
type Queue struct {
	mu     sync.Mutex
	tasks  []func()
	notify chan struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Dispatch appends fn to the queue.
func (q *Queue) Dispatch(fn func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Len returns the number of tasks waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Run executes tasks on the calling goroutine until ctx is done. Only one
// Run may be active at a time.
func (q *Queue) Run(ctx context.Context) error {
	for {
		q.mu.Lock()
		tasks := q.tasks
		q.tasks = nil
		q.mu.Unlock()

		for _, fn := range tasks {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn()
		}
		if len(tasks) > 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.notify:
		}
	}
}
