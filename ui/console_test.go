package ui

import (
	"bytes"
	"testing"
	"time"

	"batchrunner/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleReporterStatusLines(t *testing.T) {
	var buf bytes.Buffer
	backlog := engine.NewBacklog()
	task := engine.NewTask("/opt/jobs/build.sh", "")
	require.NoError(t, backlog.Add(task))

	r := NewConsoleReporter(&buf)
	r.Attach(backlog)

	r.TaskStatusChanged(engine.TaskUpdate{TaskID: task.ID, Status: engine.StatusQueued})
	r.TaskStatusChanged(engine.TaskUpdate{TaskID: task.ID, Status: engine.StatusRunning})
	r.TaskStatusChanged(engine.TaskUpdate{TaskID: task.ID, Status: engine.StatusSucceeded, ExitCode: 7})

	out := buf.String()
	assert.Contains(t, out, "build.sh  queued")
	assert.Contains(t, out, "build.sh  running")
	assert.Contains(t, out, "build.sh  done (code 7)")
}

func TestConsoleReporterFailureLine(t *testing.T) {
	var buf bytes.Buffer
	backlog := engine.NewBacklog()
	task := engine.NewTask("deploy.sh", "")
	require.NoError(t, backlog.Add(task))

	r := NewConsoleReporter(&buf)
	r.Attach(backlog)

	r.TaskStatusChanged(engine.TaskUpdate{TaskID: task.ID, Status: engine.StatusFailed, Reason: "shell exploded"})

	assert.Contains(t, buf.String(), "deploy.sh  failed: shell exploded")
}

func TestConsoleReporterUnknownTaskFallsBackToID(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	r.TaskStatusChanged(engine.TaskUpdate{TaskID: "0123456789abcdef", Status: engine.StatusQueued})

	assert.Contains(t, buf.String(), "01234567  queued")
}

func TestConsoleReporterSummaryAndWait(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	summary := engine.Summary{Succeeded: 3, Failed: 1, RemainingPending: 2, StoppedByUser: true}
	r.SessionFinished(summary)

	got := make(chan engine.Summary, 1)
	go func() { got <- r.Wait() }()
	select {
	case s := <-got:
		assert.Equal(t, summary, s)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after SessionFinished")
	}

	out := buf.String()
	assert.Contains(t, out, "session finished")
	assert.Contains(t, out, "succeeded: 3")
	assert.Contains(t, out, "failed:    1")
	assert.Contains(t, out, "pending:   2")
	assert.Contains(t, out, "stopped: by user")
}

func TestConsoleReporterFailureStopSummary(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	r.SessionFinished(engine.Summary{Failed: 1, StoppedByFailure: true})

	assert.Contains(t, buf.String(), "stopped: execution environment failure")
}
