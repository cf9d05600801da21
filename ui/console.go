// Package ui renders task status changes and the session summary as colored
// console lines. It is the single consumer of the engine's status events.
package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"batchrunner/engine"
)

// ConsoleReporter implements engine.Reporter. The engine guarantees a single
// calling goroutine, so the reporter keeps plain unguarded state.
type ConsoleReporter struct {
	backlog *engine.Backlog
	out     io.Writer
	names   map[string]string
	done    chan engine.Summary
}

// NewConsoleReporter creates a reporter writing to out, or to stdout when out
// is nil. Attach the controller's backlog before the session starts.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{
		out:   out,
		names: make(map[string]string),
		done:  make(chan engine.Summary, 1),
	}
}

// Attach binds the backlog read for display names and live counts. The
// reporter is constructed before the controller, so the backlog arrives late.
func (r *ConsoleReporter) Attach(backlog *engine.Backlog) {
	r.backlog = backlog
}

// TaskStatusChanged prints one line per transition plus a live counts tail.
func (r *ConsoleReporter) TaskStatusChanged(update engine.TaskUpdate) {
	name := r.displayName(update.TaskID)

	var line string
	switch update.Status {
	case engine.StatusQueued:
		line = queuedStyle.Render(fmt.Sprintf("%s  queued", name))
	case engine.StatusRunning:
		line = runningStyle.Render(fmt.Sprintf("%s  running", name))
	case engine.StatusSucceeded:
		line = succeededStyle.Render(fmt.Sprintf("%s  done (code %d)", name, update.ExitCode))
	case engine.StatusFailed:
		line = failedStyle.Render(fmt.Sprintf("%s  failed: %s", name, update.Reason))
	default:
		line = fmt.Sprintf("%s  %s", name, update.Status)
	}

	tail := ""
	if r.backlog != nil {
		running := r.backlog.RunningCount()
		queued := r.backlog.CountStatus(engine.StatusQueued)
		tail = tailStyle.Render(fmt.Sprintf("  [running %d, queued %d]", running, queued))
	}
	fmt.Fprintln(r.out, line+tail)
}

// SessionFinished prints the summary block and unblocks Wait.
func (r *ConsoleReporter) SessionFinished(summary engine.Summary) {
	fmt.Fprintln(r.out, summaryTitleStyle.Render("session finished"))
	fmt.Fprintf(r.out, "  succeeded: %d\n", summary.Succeeded)
	fmt.Fprintf(r.out, "  failed:    %d\n", summary.Failed)
	fmt.Fprintf(r.out, "  pending:   %d\n", summary.RemainingPending)
	switch {
	case summary.StoppedByFailure:
		fmt.Fprintln(r.out, failedStyle.Render("  stopped: execution environment failure"))
	case summary.StoppedByUser:
		fmt.Fprintln(r.out, queuedStyle.Render("  stopped: by user"))
	}

	select {
	case r.done <- summary:
	default:
	}
}

// Wait blocks until the session summary has been printed and returns it.
func (r *ConsoleReporter) Wait() engine.Summary {
	return <-r.done
}

func (r *ConsoleReporter) displayName(id string) string {
	if name, ok := r.names[id]; ok {
		return name
	}
	name := id
	if len(id) > 8 {
		name = id[:8]
	}
	if r.backlog != nil {
		if view, ok := r.backlog.Get(id); ok {
			name = filepath.Base(view.Task.Command)
		}
	}
	r.names[id] = name
	return name
}
