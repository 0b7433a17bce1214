// Package pool runs background tasks on a bounded set of workers.
//
// Submission never blocks: every submitted task waits for a worker slot in
// submission order, and at most Workers tasks run at once. A task runs to
// completion once it has started.
package pool

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned when submitting to a closed pool.
var ErrClosed = errors.New("pool: closed")

// Priority selects the share of the machine the pool may use.
type Priority int

const (
	// PriorityNormal uses one worker per GOMAXPROCS.
	PriorityNormal Priority = iota
	// PriorityLow uses half the workers of PriorityNormal, leaving room for
	// interactive work.
	PriorityLow
)

// String returns the priority name.
func (p Priority) String() string {
	switch p {
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// Task is a unit of background work. ctx is canceled when the pool closes.
type Task func(ctx context.Context)

// Pool is a semaphore-bounded worker pool.
type Pool struct {
	workers  int
	priority Priority
	logger   *slog.Logger

	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	queued  atomic.Int64
	running atomic.Int64
}

// Option configures a Pool.
type Option func(*Pool)

// WithWorkers fixes the number of concurrent workers.
// Values < 1 select the count from the priority.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		p.workers = n
	}
}

// WithPriority sets the pool priority. Defaults to PriorityNormal.
func WithPriority(priority Priority) Option {
	return func(p *Pool) {
		p.priority = priority
	}
}

// WithLogger sets the logger for pool diagnostics.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		p.logger = logger
	}
}

// New creates a pool.
func New(opts ...Option) *Pool {
	p := &Pool{}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers < 1 {
		p.workers = workersFor(p.priority)
	}
	p.sem = semaphore.NewWeighted(int64(p.workers))
	p.ctx, p.cancel = context.WithCancel(context.Background())
	return p
}

func workersFor(priority Priority) int {
	n := runtime.GOMAXPROCS(0)
	if priority == PriorityLow {
		n /= 2
	}
	return max(1, n)
}

// log returns the logger, falling back to a discard logger if nil.
func (p *Pool) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.logger
}

// Workers returns the maximum number of concurrently running tasks.
func (p *Pool) Workers() int { return p.workers }

// Priority returns the configured priority.
func (p *Pool) Priority() Priority { return p.priority }

// Queued returns the number of tasks waiting for a worker.
func (p *Pool) Queued() int64 { return p.queued.Load() }

// Running returns the number of tasks currently executing.
func (p *Pool) Running() int64 { return p.running.Load() }

// Submit schedules task and returns immediately.
func (p *Pool) Submit(task Task) error {
	return p.SubmitOrDrop(task, nil)
}

// SubmitOrDrop schedules task like Submit. If the pool closes before task
// starts, onDrop is called in its place. onDrop may be nil.
func (p *Pool) SubmitOrDrop(task Task, onDrop func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	p.queued.Add(1)
	p.wg.Add(1)
	go p.run(task, onDrop)
	return nil
}

func (p *Pool) run(task Task, onDrop func()) {
	defer p.wg.Done()

	if err := p.sem.Acquire(p.ctx, 1); err != nil {
		p.queued.Add(-1)
		p.drop(onDrop, err)
		return
	}
	defer p.sem.Release(1)

	p.queued.Add(-1)
	if err := p.ctx.Err(); err != nil {
		p.drop(onDrop, err)
		return
	}
	p.running.Add(1)
	defer p.running.Add(-1)

	defer func() {
		if r := recover(); r != nil {
			p.log().Error("pool task panicked", "panic", r)
		}
	}()
	task(p.ctx)
}

func (p *Pool) drop(onDrop func(), err error) {
	p.log().Debug("pool task dropped", "error", err)
	if onDrop != nil {
		onDrop()
	}
}

// Wait blocks until every submitted task has finished or been dropped.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Close stops accepting tasks and waits for running tasks to return. Queued
// tasks are dropped and their drop callbacks have run when Close returns.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}
