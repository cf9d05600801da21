package engine

import "errors"

var (
	ErrInvalidParallelism = errors.New("parallelism must be at least 1")
	ErrNoPendingTasks     = errors.New("backlog has no pending tasks")
	ErrNotIdle            = errors.New("session already active")
	ErrNotRunning         = errors.New("no session is running")
	ErrTaskNotFound       = errors.New("task not found")
	ErrTaskRunning        = errors.New("task is currently running")
	ErrTaskNotPending     = errors.New("task is not pending")
	ErrDuplicateTask      = errors.New("task id already in backlog")

	// ErrShellUnavailable marks an environment-level failure: the execution
	// facility itself is unusable, so every subsequent task would fail the
	// same way. Script runners wrap it; workers detect it with errors.Is and
	// wind the whole session down.
	ErrShellUnavailable = errors.New("command shell unavailable")
)
