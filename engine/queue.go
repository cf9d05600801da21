package engine

import (
	"sync"
	"time"
)

// DequeueResult classifies what DequeueTimeout returned.
type DequeueResult int

const (
	// DequeueTask means a real task was returned.
	DequeueTask DequeueResult = iota
	// DequeueEmpty means the timeout expired with nothing available.
	DequeueEmpty
	// DequeueShutdown means a shutdown sentinel was consumed.
	DequeueShutdown
)

type queueItem struct {
	task     Task
	sentinel bool
}

// Queue is an unbounded, concurrent FIFO of tasks with a timed blocking
// dequeue. Shutdown sentinels are ordered like any other item but carry no
// payload; they exist solely to wake blocked consumers promptly instead of
// letting them wait out their full poll timeout.
type Queue struct {
	mu        sync.Mutex
	items     []queueItem
	taskCount int
	wake      chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		wake: make(chan struct{}, 1),
	}
}

// Enqueue appends a task to the tail. Never blocks; callable from any
// goroutine at any time, including mid-drain.
func (q *Queue) Enqueue(task Task) {
	q.mu.Lock()
	q.items = append(q.items, queueItem{task: task})
	q.taskCount++
	q.mu.Unlock()
	q.nudge()
}

// BroadcastShutdown enqueues n shutdown sentinels, at least one per consumer
// expected to be blocked in DequeueTimeout.
func (q *Queue) BroadcastShutdown(n int) {
	q.mu.Lock()
	for i := 0; i < n; i++ {
		q.items = append(q.items, queueItem{sentinel: true})
	}
	q.mu.Unlock()
	q.nudge()
}

// DequeueTimeout blocks up to timeout for the next item. It returns the next
// task in FIFO order, DequeueShutdown if a sentinel was consumed, or
// DequeueEmpty once the timeout expires.
func (q *Queue) DequeueTimeout(timeout time.Duration) (Task, DequeueResult) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			if !item.sentinel {
				q.taskCount--
			}
			remaining := len(q.items)
			q.mu.Unlock()

			// Pass the wake-up along so sibling consumers blocked on the
			// same single-slot wake channel get their turn.
			if remaining > 0 {
				q.nudge()
			}
			if item.sentinel {
				return Task{}, DequeueShutdown
			}
			return item.task, DequeueTask
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-timer.C:
			return Task{}, DequeueEmpty
		}
	}
}

// Len returns the number of real tasks currently queued, excluding shutdown
// sentinels. The count is advisory: it is used for status display and
// completion pre-checks, never as the sole basis of a correctness decision.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.taskCount
}

// Drain discards everything in the queue, sentinels included, and returns
// the number of real tasks thrown away. Used when a new session repopulates
// the queue from the backlog.
func (q *Queue) Drain() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	dropped := q.taskCount
	q.items = nil
	q.taskCount = 0
	return dropped
}

func (q *Queue) nudge() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
