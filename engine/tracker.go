package engine

import (
	"sync"
	"sync/atomic"
	"time"
)

// recheckDelay is how long a zero-crossing waits before the completion
// re-check runs. The delay gives a concurrent AddTask racing the last worker
// exit time to land in the live queue, so the re-check sees it and re-arms
// instead of finalizing a session that still has runnable work.
const recheckDelay = 100 * time.Millisecond

// completionTracker detects "the last worker has exited" exactly once per
// zero-crossing. The counter is guarded by a mutex held only for the
// decrement; the gate is a single-fire acquire-once primitive ensuring at
// most one deferred re-check is in flight at a time. The re-check callback
// decides whether to finalize, re-arm, or just release the gate.
type completionTracker struct {
	mu      sync.Mutex
	active  int
	gate    atomic.Bool
	recheck func()
}

func newCompletionTracker(recheck func()) *completionTracker {
	return &completionTracker{recheck: recheck}
}

// reset arms the tracker for n workers and releases the gate. Called before
// workers are spawned, both at session start and on re-arm.
func (t *completionTracker) reset(n int) {
	t.mu.Lock()
	t.active = n
	t.mu.Unlock()
	t.gate.Store(false)
}

// exit records one worker exit. If this decrement crossed zero and the gate
// was free, a deferred re-check is scheduled; if the gate was already held,
// another exit has scheduled one and there is nothing to do.
func (t *completionTracker) exit() {
	t.mu.Lock()
	t.active--
	remaining := t.active
	t.mu.Unlock()

	if remaining > 0 {
		return
	}
	if !t.gate.CompareAndSwap(false, true) {
		return
	}
	go func() {
		time.Sleep(recheckDelay)
		t.recheck()
	}()
}

// activeCount returns the current number of live workers.
func (t *completionTracker) activeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// releaseGate frees the gate so a future zero-crossing can schedule another
// re-check. Called by the re-check when it decides not to finalize.
func (t *completionTracker) releaseGate() {
	t.gate.Store(false)
}
