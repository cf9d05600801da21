package engine

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrackerSingleRecheckPerZeroCrossing(t *testing.T) {
	var calls atomic.Int32
	tracker := newCompletionTracker(func() {
		calls.Add(1)
	})

	const workers = 8
	tracker.reset(workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.exit()
		}()
	}
	wg.Wait()

	time.Sleep(recheckDelay + 100*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 0, tracker.activeCount())
}

func TestTrackerGateBlocksUntilReleased(t *testing.T) {
	var calls atomic.Int32
	tracker := newCompletionTracker(func() {
		calls.Add(1)
	})

	tracker.reset(1)
	tracker.exit()
	time.Sleep(recheckDelay + 100*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	// Gate still held: a second zero-crossing schedules nothing.
	tracker.mu.Lock()
	tracker.active = 1
	tracker.mu.Unlock()
	tracker.exit()
	time.Sleep(recheckDelay + 100*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	// After release the next crossing fires again.
	tracker.releaseGate()
	tracker.mu.Lock()
	tracker.active = 1
	tracker.mu.Unlock()
	tracker.exit()
	time.Sleep(recheckDelay + 100*time.Millisecond)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTrackerResetReleasesGate(t *testing.T) {
	var calls atomic.Int32
	tracker := newCompletionTracker(func() {
		calls.Add(1)
	})

	tracker.reset(1)
	tracker.exit()
	time.Sleep(recheckDelay + 100*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	tracker.reset(2)
	assert.Equal(t, 2, tracker.activeCount())
	tracker.exit()
	tracker.exit()
	time.Sleep(recheckDelay + 100*time.Millisecond)
	assert.Equal(t, int32(2), calls.Load())
}
