package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"batchrunner/log"
)

// runWorker is the body of one worker goroutine. Workers pull tasks off the
// shared queue until a stop is requested, a shutdown sentinel arrives, or the
// queue stays empty with no sibling still executing.
func (c *Controller) runWorker(id int) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorLog.Printf("worker %d panicked: %v", id, r)
		}
		log.DebugLog.Printf("worker %d exiting", id)
		c.tracker.exit()
	}()

	log.DebugLog.Printf("worker %d started", id)
	emptyLog := log.NewEvery(30 * time.Second)
	for {
		if c.stopRequested.Load() {
			return
		}

		task, result := c.queue.DequeueTimeout(c.cfg.PollInterval)
		switch result {
		case DequeueShutdown:
			return
		case DequeueEmpty:
			if emptyLog.ShouldLog() {
				log.DebugLog.Printf("worker %d: queue empty, polling", id)
			}
			// Drain-exit: with the queue empty and no sibling mid-task there
			// is nothing left that could produce work for this session, so
			// exit and let the completion re-check settle whether the session
			// is really over.
			if c.stopRequested.Load() || c.State() != StateRunning {
				return
			}
			if c.backlog.RunningCount() == 0 && c.queue.Len() == 0 {
				return
			}
			continue
		case DequeueTask:
			// A stop may have landed between the sentinel broadcast and this
			// dequeue, with the task ordered ahead of the sentinels. Abandon
			// it unexecuted; finalization reverts it to Pending.
			if c.stopRequested.Load() {
				return
			}
			if fatal := c.executeTask(id, task); fatal {
				return
			}
		}
	}
}

// executeTask runs one task to completion and writes the outcome back to the
// backlog. It reports fatal=true only for environment-level failures, which
// take the whole session down.
func (c *Controller) executeTask(id int, task Task) (fatal bool) {
	if err := c.backlog.MarkRunning(task.ID); err != nil {
		// The entry was removed between enqueue and dispatch; skip it.
		log.WarningLog.Printf("worker %d: skipping stale queue entry %s: %v", id, task.ID, err)
		return false
	}
	c.report(event{update: TaskUpdate{TaskID: task.ID, Status: StatusRunning}})
	log.InfoLog.Printf("worker %d: running %s %s", id, task.Command, task.Args)

	defer func() {
		if r := recover(); r != nil {
			reason := fmt.Sprintf("runner panic: %v", r)
			log.ErrorLog.Printf("worker %d: %s", id, reason)
			c.markFailed(task.ID, reason)
		}
	}()

	exitCode, err := c.runner.Run(context.Background(), task.Command, task.Args)
	if err == nil {
		// Completion is what counts here. A nonzero exit code is the
		// command's business, recorded but not treated as a failure.
		_ = c.backlog.MarkSucceeded(task.ID, exitCode)
		c.succeeded.Add(1)
		c.report(event{update: TaskUpdate{TaskID: task.ID, Status: StatusSucceeded, ExitCode: exitCode}})
		log.InfoLog.Printf("worker %d: %s finished with exit code %d", id, task.Command, exitCode)
		return false
	}

	c.markFailed(task.ID, err.Error())
	if errors.Is(err, ErrShellUnavailable) {
		log.ErrorLog.Printf("worker %d: %s: %v", id, task.Command, err)
		c.beginStop(stopFailure)
		return true
	}
	log.ErrorLog.Printf("worker %d: %s failed: %v", id, task.Command, err)
	return false
}

func (c *Controller) markFailed(taskID, reason string) {
	_ = c.backlog.MarkFailed(taskID, reason)
	c.failed.Add(1)
	c.report(event{update: TaskUpdate{TaskID: taskID, Status: StatusFailed, Reason: reason}})
}
