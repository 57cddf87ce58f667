// Package ingest provides the concurrency plumbing for the content import
// pipeline: a fixed worker pool for CPU-bound chunk analysis and a batch
// writer that groups sqlite writes into transactions.
package ingest

import (
	"context"
	"errors"
	"sync"
)

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("worker pool closed")

// Job is one unit of work. workerID identifies the goroutine running the job
// (0..workers-1), so callers can give each worker its own non-shared state,
// such as a tokenizer session.
type Job func(ctx context.Context, workerID int) error

// Pool runs jobs on a fixed set of goroutines.
type Pool struct {
	jobs    chan Job
	wg      sync.WaitGroup
	workers int

	closeMu sync.Mutex
	closed  bool
}

// NewPool creates a pool with the given worker count and queue capacity.
// Non-positive values fall back to one worker / twice the worker count.
func NewPool(workers, queue int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queue <= 0 {
		queue = workers * 2
	}
	return &Pool{
		jobs:    make(chan Job, queue),
		workers: workers,
	}
}

// Workers reports the configured worker count.
func (p *Pool) Workers() int { return p.workers }

// Start launches the workers. They drain the queue until ctx is canceled or
// Close is called. Job errors are the job's own responsibility to report.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-p.jobs:
					if !ok {
						return
					}
					_ = job(ctx, id)
				}
			}
		}(i)
	}
}

// Submit enqueues a job, blocking while the queue is full.
func (p *Pool) Submit(job Job) error {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	p.jobs <- job
	return nil
}

// SubmitCtx enqueues a job but gives up when ctx is canceled instead of
// blocking on a full queue. The submitting goroutine must not race with
// Close; close the pool only after the last submit returns.
func (p *Pool) SubmitCtx(ctx context.Context, job Job) error {
	p.closeMu.Lock()
	if p.closed {
		p.closeMu.Unlock()
		return ErrPoolClosed
	}
	select {
	case p.jobs <- job:
		p.closeMu.Unlock()
		return nil
	default:
	}
	p.closeMu.Unlock()

	// Queue full: wait without holding the lock.
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs and waits for queued work to finish.
func (p *Pool) Close() {
	p.closeMu.Lock()
	if p.closed {
		p.closeMu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.closeMu.Unlock()
	p.wg.Wait()
}
