package sync

import (
	"context"
	"log/slog"
	"sync"
)

// run tracks one in-flight queue execution. err is valid once done closes.
type run struct {
	done chan struct{}
	err  error
}

// RedecodeQueue serializes operations by key so the same key never runs
// twice concurrently. A caller whose key is already in flight joins that
// run and observes its outcome instead of starting a second one. A
// semaphore caps how many distinct keys execute at once.
type RedecodeQueue struct {
	mu       sync.Mutex
	inflight map[string]*run
	sem      chan struct{}
	logger   *slog.Logger
}

// NewRedecodeQueue creates a queue allowing at most workers concurrent keys.
func NewRedecodeQueue(workers int, logger *slog.Logger) *RedecodeQueue {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for RedecodeQueue")
	}
	if workers <= 0 {
		workers = 1
	}

	return &RedecodeQueue{
		inflight: make(map[string]*run),
		sem:      make(chan struct{}, workers),
		logger:   logger.With(slog.String("component", "redecode_queue")),
	}
}

// Run executes fn under the given key. If the key is already running, Run
// blocks until that execution finishes and returns its error. Waiting for a
// worker slot or for a joined run respects ctx.
func (q *RedecodeQueue) Run(ctx context.Context, key string, fn func(context.Context) error) error {
	q.mu.Lock()
	if existing, ok := q.inflight[key]; ok {
		q.mu.Unlock()
		q.logger.Debug("joining in-flight run", "key", key)
		select {
		case <-existing.done:
			return existing.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r := &run{done: make(chan struct{})}
	q.inflight[key] = r
	q.mu.Unlock()

	// The key is claimed before the slot is acquired, so joiners arriving
	// while this run waits for a worker still attach to it.
	select {
	case q.sem <- struct{}{}:
	case <-ctx.Done():
		q.finish(key, r, ctx.Err())
		return ctx.Err()
	}

	q.logger.Debug("running", "key", key)
	err := fn(ctx)
	<-q.sem
	q.finish(key, r, err)
	return err
}

// InFlight reports how many keys currently hold a run, queued or executing.
func (q *RedecodeQueue) InFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inflight)
}

// finish publishes the run result and releases the key.
func (q *RedecodeQueue) finish(key string, r *run, err error) {
	q.mu.Lock()
	delete(q.inflight, key)
	q.mu.Unlock()

	r.err = err
	close(r.done)
}
