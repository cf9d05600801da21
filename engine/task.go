package engine

import (
	"github.com/google/uuid"
)

// Task is one external command invocation. It is an immutable value: the ID
// is assigned at creation and never reused, so status write-back stays valid
// no matter how the display order shifts under removals and edits.
type Task struct {
	ID      string
	Command string
	Args    string
}

// NewTask creates a task for the given command path and argument string.
func NewTask(command, args string) Task {
	return Task{
		ID:      uuid.New().String(),
		Command: command,
		Args:    args,
	}
}

// Status represents the current state of a task in the backlog.
type Status int

const (
	// StatusPending means the task is known but not dispatched to any queue.
	StatusPending Status = iota
	// StatusQueued means the task sits in the live task queue.
	StatusQueued
	// StatusRunning means a worker is executing the task right now.
	StatusRunning
	// StatusSucceeded means the command ran to completion. The exit code may
	// be nonzero; the engine does not interpret it.
	StatusSucceeded
	// StatusFailed means the engine could not run the command.
	StatusFailed
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusQueued:
		return "Queued"
	case StatusRunning:
		return "Running"
	case StatusSucceeded:
		return "Succeeded"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the status is final for the current session.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// TaskUpdate is a single status transition delivered to the Reporter.
type TaskUpdate struct {
	TaskID string
	Status Status
	// ExitCode is valid when Status is StatusSucceeded.
	ExitCode int
	// Reason is valid when Status is StatusFailed.
	Reason string
}

// Summary describes one finished session.
type Summary struct {
	Succeeded        int
	Failed           int
	RemainingPending int
	StoppedByUser    bool
	StoppedByFailure bool
}

// SessionState is the lifecycle state of the execution controller.
type SessionState int

const (
	// StateIdle means no session is active. Initial and terminal state.
	StateIdle SessionState = iota
	// StateRunning means workers are processing the queue.
	StateRunning
	// StateStopping means a stop was requested; in-flight tasks finish but
	// nothing new is dispatched.
	StateStopping
)

// String returns the string representation of the session state
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	default:
		return "Unknown"
	}
}
