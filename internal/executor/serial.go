// Package executor provides strictly-ordered serial task queues. The replay
// pipeline runs on exactly two of them: the "main" queue standing in for the
// UI execution context, and the background queue shared by the snapshot
// processor, resource processor, and segment writer. Single-consumer FIFO
// execution gives total ordering of diffing and writing without locks around
// the pipeline's mutable state.
package executor

import (
	"sync"
)

// Serial is an unbounded FIFO task queue executed by a single goroutine.
// Submit never blocks the caller; backpressure is implicit because producers
// are tick-rate-bounded.
type Serial struct {
	name string

	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	closed bool

	done chan struct{}
}

// NewSerial creates a queue and starts its consumer goroutine.
func NewSerial(name string) *Serial {
	q := &Serial{
		name: name,
		done: make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Name returns the queue name, used in diagnostics.
func (q *Serial) Name() string {
	return q.name
}

// Submit enqueues a task for asynchronous execution in submission order.
// Returns false if the queue is closed; the task is then not run.
func (q *Serial) Submit(task func()) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.tasks = append(q.tasks, task)
	q.cond.Signal()
	q.mu.Unlock()
	return true
}

// Len returns the number of queued, not-yet-started tasks.
func (q *Serial) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Sync submits a task and waits for it to complete. Returns false if the
// queue is closed. Intended for tests and shutdown barriers, not for the UI
// context, which must never block on background work.
func (q *Serial) Sync(task func()) bool {
	ch := make(chan struct{})
	if !q.Submit(func() {
		task()
		close(ch)
	}) {
		return false
	}
	<-ch
	return true
}

// Close stops accepting tasks, drains everything already queued, and waits
// for the consumer goroutine to finish. Safe to call more than once.
func (q *Serial) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.cond.Signal()
	}
	q.mu.Unlock()
	<-q.done
}

func (q *Serial) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.tasks) == 0 && q.closed {
			q.mu.Unlock()
			return
		}
		task := q.tasks[0]
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		task()
	}
}
