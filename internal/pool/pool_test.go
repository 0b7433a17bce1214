package pool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkersFromPriority(t *testing.T) {
	t.Parallel()

	procs := runtime.GOMAXPROCS(0)
	assert.Equal(t, procs, New().Workers())
	assert.Equal(t, max(1, procs/2), New(WithPriority(PriorityLow)).Workers())
	assert.Equal(t, 3, New(WithWorkers(3), WithPriority(PriorityLow)).Workers())
	assert.Equal(t, procs, New(WithWorkers(-1)).Workers())
}

func TestSubmitRunsEveryTask(t *testing.T) {
	t.Parallel()

	p := New(WithWorkers(4))
	defer p.Close()

	var ran atomic.Int64
	for range 100 {
		require.NoError(t, p.Submit(func(context.Context) { ran.Add(1) }))
	}
	p.Wait()
	assert.Equal(t, int64(100), ran.Load())
	assert.Equal(t, int64(0), p.Queued())
	assert.Equal(t, int64(0), p.Running())
}

func TestConcurrencyIsBounded(t *testing.T) {
	t.Parallel()

	const workers = 3
	p := New(WithWorkers(workers))
	defer p.Close()

	var active, peak atomic.Int64
	release := make(chan struct{})
	for range 12 {
		require.NoError(t, p.Submit(func(context.Context) {
			n := active.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			<-release
			active.Add(-1)
		}))
	}

	require.Eventually(t, func() bool {
		return p.Running() == workers && p.Queued() == 12-workers
	}, 5*time.Second, time.Millisecond)
	close(release)
	p.Wait()
	assert.Equal(t, int64(workers), peak.Load())
}

func TestCloseDropsQueuedTasks(t *testing.T) {
	t.Parallel()

	p := New(WithWorkers(1))

	started := make(chan struct{})
	var canceled atomic.Bool
	require.NoError(t, p.Submit(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		canceled.Store(true)
	}))
	<-started

	var queuedRan atomic.Bool
	require.NoError(t, p.Submit(func(context.Context) { queuedRan.Store(true) }))

	p.Close()
	assert.True(t, canceled.Load())
	assert.False(t, queuedRan.Load())
	assert.ErrorIs(t, p.Submit(func(context.Context) {}), ErrClosed)

	// Closing twice is harmless.
	p.Close()
}

func TestCloseRunsDropCallbacks(t *testing.T) {
	t.Parallel()

	p := New(WithWorkers(1))

	started := make(chan struct{})
	var runningDropped atomic.Bool
	require.NoError(t, p.SubmitOrDrop(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	}, func() { runningDropped.Store(true) }))
	<-started

	const queued = 3
	var ran, dropped atomic.Int32
	for range queued {
		require.NoError(t, p.SubmitOrDrop(
			func(context.Context) { ran.Add(1) },
			func() { dropped.Add(1) },
		))
	}
	require.Eventually(t, func() bool { return p.Queued() == queued }, 5*time.Second, time.Millisecond)

	p.Close()
	assert.Zero(t, ran.Load())
	assert.Equal(t, int32(queued), dropped.Load())
	assert.False(t, runningDropped.Load(), "started tasks are not dropped")
	assert.ErrorIs(t, p.SubmitOrDrop(func(context.Context) {}, func() { dropped.Add(1) }), ErrClosed)
	assert.Equal(t, int32(queued), dropped.Load(), "rejected tasks are reported by the error")
}

func TestPanickingTaskDoesNotKillWorker(t *testing.T) {
	t.Parallel()

	p := New(WithWorkers(1))
	defer p.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, p.Submit(func(context.Context) { panic("boom") }))
	require.NoError(t, p.Submit(func(context.Context) { wg.Done() }))
	wg.Wait()
}

func TestPriorityString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "normal", PriorityNormal.String())
	assert.Equal(t, "low", PriorityLow.String())
	assert.Equal(t, "unknown", Priority(7).String())
}
