package engine

import (
	"sync"
)

// TaskView is a read-only snapshot of one backlog entry.
type TaskView struct {
	Task     Task
	Status   Status
	ExitCode int
	Reason   string
}

type backlogEntry struct {
	task     Task
	status   Status
	exitCode int
	reason   string
}

// Backlog is the authoritative, ordered list of every task known to the
// session, keyed by stable task id. It is a superset of whatever currently
// sits in the live task queue and is the source of truth for re-population
// and status display. The control thread mutates membership; workers write
// statuses back; every access to a single entry is atomic under one lock.
type Backlog struct {
	mu      sync.Mutex
	order   []string
	entries map[string]*backlogEntry
}

// NewBacklog creates an empty backlog.
func NewBacklog() *Backlog {
	return &Backlog{
		entries: make(map[string]*backlogEntry),
	}
}

// Add inserts a task as Pending. Duplicate command paths are the caller's
// concern; only a colliding id is rejected.
func (b *Backlog) Add(task Task) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.entries[task.ID]; exists {
		return ErrDuplicateTask
	}
	b.entries[task.ID] = &backlogEntry{task: task, status: StatusPending}
	b.order = append(b.order, task.ID)
	return nil
}

// Remove erases a task. Removing a Running task is rejected: it would race
// the worker's in-flight status write-back.
func (b *Backlog) Remove(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, exists := b.entries[id]
	if !exists {
		return ErrTaskNotFound
	}
	if entry.status == StatusRunning {
		return ErrTaskRunning
	}
	delete(b.entries, id)
	for i, oid := range b.order {
		if oid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

// EditArguments replaces a task's argument string in place. Only Pending
// tasks are editable; anything already dispatched keeps the arguments it was
// dispatched with.
func (b *Backlog) EditArguments(id, args string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, exists := b.entries[id]
	if !exists {
		return ErrTaskNotFound
	}
	if entry.status != StatusPending {
		return ErrTaskNotPending
	}
	entry.task.Args = args
	return nil
}

// Get returns a snapshot of one entry.
func (b *Backlog) Get(id string) (TaskView, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, exists := b.entries[id]
	if !exists {
		return TaskView{}, false
	}
	return entry.view(), true
}

// PendingTasks returns all Pending tasks in backlog order.
func (b *Backlog) PendingTasks() []Task {
	b.mu.Lock()
	defer b.mu.Unlock()

	var tasks []Task
	for _, id := range b.order {
		if entry := b.entries[id]; entry.status == StatusPending {
			tasks = append(tasks, entry.task)
		}
	}
	return tasks
}

// MarkQueued transitions an entry to Queued.
func (b *Backlog) MarkQueued(id string) error {
	return b.setStatus(id, StatusQueued, 0, "")
}

// MarkRunning transitions an entry to Running.
func (b *Backlog) MarkRunning(id string) error {
	return b.setStatus(id, StatusRunning, 0, "")
}

// MarkSucceeded records a normal completion with the command's exit code.
func (b *Backlog) MarkSucceeded(id string, exitCode int) error {
	return b.setStatus(id, StatusSucceeded, exitCode, "")
}

// MarkFailed records that the engine could not run the command.
func (b *Backlog) MarkFailed(id, reason string) error {
	return b.setStatus(id, StatusFailed, 0, reason)
}

func (b *Backlog) setStatus(id string, status Status, exitCode int, reason string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, exists := b.entries[id]
	if !exists {
		return ErrTaskNotFound
	}
	entry.status = status
	entry.exitCode = exitCode
	entry.reason = reason
	return nil
}

// RevertQueued moves every Queued entry back to Pending and returns how many
// were reverted. Called at finalization so tasks that were dispatched but
// never run are picked up again by the next session.
func (b *Backlog) RevertQueued() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	count := 0
	for _, entry := range b.entries {
		if entry.status == StatusQueued {
			entry.status = StatusPending
			count++
		}
	}
	return count
}

// RunningCount returns how many tasks are currently in Running status.
func (b *Backlog) RunningCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	count := 0
	for _, entry := range b.entries {
		if entry.status == StatusRunning {
			count++
		}
	}
	return count
}

// CountStatus returns how many tasks currently carry the given status.
func (b *Backlog) CountStatus(status Status) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	count := 0
	for _, entry := range b.entries {
		if entry.status == status {
			count++
		}
	}
	return count
}

// Len returns the number of tasks in the backlog.
func (b *Backlog) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}

// Snapshot returns all entries in backlog order.
func (b *Backlog) Snapshot() []TaskView {
	b.mu.Lock()
	defer b.mu.Unlock()

	views := make([]TaskView, 0, len(b.order))
	for _, id := range b.order {
		views = append(views, b.entries[id].view())
	}
	return views
}

func (e *backlogEntry) view() TaskView {
	return TaskView{
		Task:     e.task,
		Status:   e.status,
		ExitCode: e.exitCode,
		Reason:   e.reason,
	}
}
