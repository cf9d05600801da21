package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"batchrunner/log"
)

// ScriptRunner launches one external command and blocks until it finishes.
// A normal return carries the command's exit code, zero or not; an error
// means the engine itself could not run the command. Errors wrapping
// ErrShellUnavailable are fatal for the whole session.
//
// The context is plumbed through for the runner's own use; the engine never
// cancels it. Stop semantics are "refuse to dispatch", not "interrupt once
// dispatched".
type ScriptRunner interface {
	Run(ctx context.Context, command, args string) (int, error)
}

// Reporter receives status transitions and the session summary in real time.
// Exactly one goroutine invokes it, so implementations need no locking of
// their own, but callbacks must not call back into the Controller.
type Reporter interface {
	TaskStatusChanged(update TaskUpdate)
	SessionFinished(summary Summary)
}

type stopReason int

const (
	stopNone stopReason = iota
	stopUser
	stopFailure
)

type event struct {
	update  TaskUpdate
	summary *Summary
}

// ControllerConfig contains configuration options for the controller.
type ControllerConfig struct {
	// PollInterval bounds how long an idle worker blocks in one dequeue and
	// therefore how quickly it notices a stop request (default: 500ms).
	PollInterval time.Duration
	// EventBuffer is the status event channel capacity (default: 128).
	EventBuffer int
}

// DefaultControllerConfig returns a ControllerConfig with default values.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		PollInterval: 500 * time.Millisecond,
		EventBuffer:  128,
	}
}

// Controller owns the session state machine and wires the backlog, the task
// queue, the workers and the completion tracker together. One control
// goroutine issues Start/AddTask/Stop; N worker goroutines share the queue
// and write statuses back; the tracker finalizes the session exactly once.
type Controller struct {
	runner   ScriptRunner
	reporter Reporter
	cfg      ControllerConfig

	backlog *Backlog
	queue   *Queue
	tracker *completionTracker

	mu          sync.Mutex
	state       SessionState
	reason      stopReason
	parallelism int
	workerCount int

	stopRequested atomic.Bool
	succeeded     atomic.Int64
	failed        atomic.Int64

	events chan event
	quit   chan struct{}
	closed atomic.Bool
}

// NewController creates a controller. A nil reporter discards all events.
func NewController(cfg ControllerConfig, runner ScriptRunner, reporter Reporter) *Controller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 128
	}
	if reporter == nil {
		reporter = noopReporter{}
	}

	c := &Controller{
		runner:   runner,
		reporter: reporter,
		cfg:      cfg,
		backlog:  NewBacklog(),
		queue:    NewQueue(),
		events:   make(chan event, cfg.EventBuffer),
		quit:     make(chan struct{}),
	}
	c.tracker = newCompletionTracker(c.recheckCompletion)

	go c.eventLoop()
	return c
}

// Backlog exposes the task list for edits and status display.
func (c *Controller) Backlog() *Backlog {
	return c.backlog
}

// State returns the current session state.
func (c *Controller) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins a session: every Pending task moves into the live queue and
// max(1, min(parallelism, pending)) workers are spawned. Legal only in Idle.
func (c *Controller) Start(parallelism int) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrNotIdle
	}
	if parallelism < 1 {
		c.mu.Unlock()
		return ErrInvalidParallelism
	}
	pending := c.backlog.PendingTasks()
	if len(pending) == 0 {
		c.mu.Unlock()
		return ErrNoPendingTasks
	}

	workerCount := min(parallelism, len(pending))
	if workerCount < 1 {
		workerCount = 1
	}

	// Throw away anything stale from a previous session before repopulating.
	if dropped := c.queue.Drain(); dropped > 0 {
		log.WarningLog.Printf("discarded %d stale queue entries from previous session", dropped)
	}

	c.stopRequested.Store(false)
	c.reason = stopNone
	c.succeeded.Store(0)
	c.failed.Store(0)
	c.parallelism = parallelism
	c.workerCount = workerCount
	c.state = StateRunning

	for _, t := range pending {
		_ = c.backlog.MarkQueued(t.ID)
		c.report(event{update: TaskUpdate{TaskID: t.ID, Status: StatusQueued}})
		c.queue.Enqueue(t)
	}
	c.tracker.reset(workerCount)
	c.mu.Unlock()

	log.InfoLog.Printf("session started: %d tasks queued, launching %d workers (parallelism %d)",
		len(pending), workerCount, parallelism)
	for i := 0; i < workerCount; i++ {
		go c.runWorker(i)
	}
	return nil
}

// AddTask inserts a task into the backlog as Pending and, if a session is
// running, also into the live queue so an idle worker picks it up without
// waiting for a new session. While Stopping or Idle the task stays Pending:
// a stop freezes intake for the current session but never loses work.
func (c *Controller) AddTask(command, args string) (Task, error) {
	t := NewTask(command, args)
	if err := c.backlog.Add(t); err != nil {
		return Task{}, err
	}

	// The running check, status flip and enqueue stay under the state lock
	// so they cannot interleave with a finalization reading the queue.
	c.mu.Lock()
	if c.state == StateRunning {
		_ = c.backlog.MarkQueued(t.ID)
		c.report(event{update: TaskUpdate{TaskID: t.ID, Status: StatusQueued}})
		c.queue.Enqueue(t)
		c.mu.Unlock()
		log.InfoLog.Printf("task %s added to live queue: %s", t.ID, t.Command)
		return t, nil
	}
	c.mu.Unlock()

	log.InfoLog.Printf("task %s added as pending: %s", t.ID, t.Command)
	return t, nil
}

// Stop requests a graceful stop: in-flight tasks finish, nothing new is
// dispatched. Shutdown sentinels wake blocked workers promptly. Calling Stop
// again while already Stopping is a no-op; Stop in Idle is rejected.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if c.state == StateIdle {
		c.mu.Unlock()
		return ErrNotRunning
	}
	if c.state == StateStopping {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.beginStop(stopUser)
	return nil
}

// Close shuts down the status event loop. Call once the controller is no
// longer needed; any session should be finished first.
func (c *Controller) Close() {
	if c.closed.CompareAndSwap(false, true) {
		close(c.quit)
	}
}

// beginStop transitions Running -> Stopping and wakes every blocked worker.
func (c *Controller) beginStop(reason stopReason) {
	c.mu.Lock()
	if c.state != StateRunning {
		c.mu.Unlock()
		return
	}
	c.state = StateStopping
	c.reason = reason
	sentinels := c.workerCount + 1
	// Stored under the lock: a re-check must never observe Stopping with the
	// flag still clear, or it could re-arm workers mid-stop.
	c.stopRequested.Store(true)
	c.mu.Unlock()

	c.queue.BroadcastShutdown(sentinels)
	if reason == stopUser {
		log.InfoLog.Printf("stop requested; letting in-flight tasks finish")
	} else {
		log.ErrorLog.Printf("environment failure; winding the session down")
	}
}

// recheckCompletion is the deferred re-check scheduled by the tracker after
// a zero-crossing. It reads current state, not the state at the crossing:
// an AddTask may have landed in the live queue at the exact instant the
// worker count hit zero, in which case the session re-arms instead of
// finalizing.
func (c *Controller) recheckCompletion() {
	c.mu.Lock()
	if c.state == StateIdle {
		// Finalization already happened; nothing left to decide.
		c.mu.Unlock()
		c.tracker.releaseGate()
		return
	}

	active := c.tracker.activeCount()
	queued := c.queue.Len()
	stop := c.stopRequested.Load()
	if log.IsDebugEnabled() {
		log.DebugLog.Printf("completion check: active=%d queued=%d stop=%v", active, queued, stop)
	}

	if (active <= 0 && queued == 0) || stop {
		c.finalizeLocked()
		c.mu.Unlock()
		return
	}

	if active <= 0 {
		// Work reappeared at the boundary: keep the session alive with a
		// fresh set of workers sized to what remains.
		workerCount := min(c.parallelism, queued)
		if workerCount < 1 {
			workerCount = 1
		}
		c.workerCount = workerCount
		c.tracker.reset(workerCount)
		c.mu.Unlock()

		log.InfoLog.Printf("completion check: %d tasks arrived at the boundary, re-arming %d workers", queued, workerCount)
		for i := 0; i < workerCount; i++ {
			go c.runWorker(i)
		}
		return
	}

	// Workers are somehow alive again; let a future zero-crossing retrigger.
	c.mu.Unlock()
	c.tracker.releaseGate()
}

// finalizeLocked ends the session: Queued-but-never-run tasks revert to
// Pending, the summary is built and emitted, and state returns to Idle.
// Caller holds c.mu. This is the only path out of Running/Stopping, and the
// gate stays held until here, so exactly one finalization occurs per session.
func (c *Controller) finalizeLocked() {
	if reverted := c.backlog.RevertQueued(); reverted > 0 {
		log.InfoLog.Printf("finalize: %d queued tasks reverted to pending", reverted)
	}
	c.queue.Drain()

	summary := Summary{
		Succeeded:        int(c.succeeded.Load()),
		Failed:           int(c.failed.Load()),
		RemainingPending: c.backlog.CountStatus(StatusPending),
		StoppedByUser:    c.reason == stopUser,
		StoppedByFailure: c.reason == stopFailure,
	}
	c.state = StateIdle
	c.tracker.releaseGate()
	c.report(event{summary: &summary})

	log.InfoLog.Printf("session finished: %d succeeded, %d failed, %d pending, stoppedByUser=%v, stoppedByFailure=%v",
		summary.Succeeded, summary.Failed, summary.RemainingPending, summary.StoppedByUser, summary.StoppedByFailure)
}

// report hands an event to the single consumer goroutine. Workers only ever
// produce; the event loop alone touches the Reporter, which keeps the engine
// free of any presentation-thread affinity.
func (c *Controller) report(ev event) {
	select {
	case c.events <- ev:
	case <-c.quit:
	}
}

func (c *Controller) eventLoop() {
	for {
		select {
		case ev := <-c.events:
			c.dispatch(ev)
		case <-c.quit:
			// Drain whatever is already buffered, then stop.
			for {
				select {
				case ev := <-c.events:
					c.dispatch(ev)
				default:
					return
				}
			}
		}
	}
}

func (c *Controller) dispatch(ev event) {
	if ev.summary != nil {
		c.reporter.SessionFinished(*ev.summary)
		return
	}
	c.reporter.TaskStatusChanged(ev.update)
}

type noopReporter struct{}

func (noopReporter) TaskStatusChanged(TaskUpdate) {}
func (noopReporter) SessionFinished(Summary)      {}
