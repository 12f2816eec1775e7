// Package detached runs work whose lifetime is independent of the call that started it.
package detached

import (
	"context"
	"fmt"
	"sync"

	"nearest-departures/internal/general/logger"
	"nearest-departures/internal/general/metrics"

	"golang.org/x/sync/semaphore"
)

// Runner spawns fire-and-forget tasks. A task keeps the values of the spawning
// context (correlation id, caller) but never its cancellation or deadline.
type Runner struct {
	logger  *logger.Logger
	metrics *metrics.Metrics
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
}

// NewRunner bounds concurrently running tasks to limit; limit <= 0 means unbounded.
func NewRunner(logger *logger.Logger, m *metrics.Metrics, limit int) *Runner {
	r := &Runner{logger: logger, metrics: m}
	if limit > 0 {
		r.sem = semaphore.NewWeighted(int64(limit))
	}
	return r
}

// Go starts fn in the background and returns immediately. Errors and panics
// are logged and swallowed.
func (r *Runner) Go(ctx context.Context, task string, fn func(ctx context.Context) error) {
	taskCtx := context.WithoutCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		if r.sem != nil {
			// a detached context never cancels, so Acquire only fails on misuse
			if err := r.sem.Acquire(taskCtx, 1); err != nil {
				r.logger.Error(taskCtx, "detached_slot_failed", "Failed to acquire a task slot", err, map[string]any{"task": task})
				return
			}
			defer r.sem.Release(1)
		}

		defer func() {
			if p := recover(); p != nil {
				r.metrics.Detached(task, metrics.OutcomePanic)
				r.logger.Error(taskCtx, "detached_task_panic", "Error in async processing (ACK already sent)",
					fmt.Errorf("panic: %v", p), map[string]any{"task": task})
			}
		}()

		if err := fn(taskCtx); err != nil {
			r.metrics.Detached(task, metrics.OutcomeError)
			r.logger.Error(taskCtx, "detached_task_failed", "Error in async processing (ACK already sent)", err,
				map[string]any{"task": task})
			return
		}
		r.metrics.Detached(task, metrics.OutcomeOK)
	}()
}

// Wait blocks until every spawned task has finished or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
