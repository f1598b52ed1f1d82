package workerpool

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrPoolStopped is returned by Submit and Do after Stop has been called.
var ErrPoolStopped = errors.New("workerpool: pool stopped")

// Pool is a fixed-size worker pool with a buffered job queue. Submitting
// blocks once the queue is full, so callers queue up instead of being
// rejected. Used to cap concurrency on expensive request paths such as
// voice uploads, where unbounded parallel WAV decoding and disk writes
// could starve the rest of the server.
type Pool struct {
	jobs    chan func()
	workers int
	logger  *zap.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
	quit     chan struct{}
}

// New creates a pool with the given number of workers and queue capacity.
// Workers start immediately.
func New(workers, queueSize int, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	p := &Pool{
		jobs:    make(chan func(), queueSize),
		workers: workers,
		logger:  logger,
		quit:    make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobs:
			p.run(id, job)
		case <-p.quit:
			// Drain jobs that were accepted before Stop so waiters in
			// Do are always released.
			for {
				select {
				case job := <-p.jobs:
					p.run(id, job)
				default:
					return
				}
			}
		}
	}
}

// run executes one job, recovering panics so a bad job cannot kill the
// worker.
func (p *Pool) run(id int, job func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker pool job panicked",
				zap.Int("worker", id),
				zap.Any("panic", r))
		}
	}()
	job()
}

// Submit enqueues a job. It blocks while the queue is full and returns
// ctx.Err() if the caller gives up, or an error after Stop.
func (p *Pool) Submit(ctx context.Context, job func()) error {
	select {
	case <-p.quit:
		return ErrPoolStopped
	default:
	}
	select {
	case p.jobs <- job:
		return nil
	case <-p.quit:
		return ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do submits a job and waits for it to finish, so the caller keeps its
// synchronous request/response shape while the pool bounds how many jobs
// actually run at once. The context only governs queue admission; once
// the job is enqueued Do waits for it regardless, so the caller's state
// is never touched after Do returns.
func (p *Pool) Do(ctx context.Context, job func()) error {
	done := make(chan struct{})
	err := p.Submit(ctx, func() {
		defer close(done)
		job()
	})
	if err != nil {
		return err
	}
	<-done
	return nil
}

// Stop shuts the pool down, running any already-accepted jobs, and waits
// for the workers to finish.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.quit)
	})
	p.wg.Wait()
}
