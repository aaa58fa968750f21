package analytics

import (
	"context"
	"sync"
)

// JobQueue runs jobs on a fixed pool of workers. Enqueue never blocks: when
// the buffer is full the job is dropped and Enqueue reports false.
type JobQueue[T any] struct {
	jobs       chan T
	workerFunc func(ctx context.Context, job T) error
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc

	mu      sync.RWMutex
	started bool
	stopped bool
}

// NewJobQueue creates a new job queue with the specified buffer size and worker function.
func NewJobQueue[T any](bufferSize int, workerFunc func(ctx context.Context, job T) error) *JobQueue[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &JobQueue[T]{
		jobs:       make(chan T, bufferSize),
		workerFunc: workerFunc,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start starts the job queue workers. Calling it again is a no-op.
func (q *JobQueue[T]) Start(workerCount int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started || q.stopped {
		return
	}
	q.started = true

	for i := 0; i < workerCount; i++ {
		q.wg.Add(1)
		go q.worker()
	}
}

func (q *JobQueue[T]) worker() {
	defer q.wg.Done()

	for job := range q.jobs {
		// Worker errors are the worker's to log.
		_ = q.workerFunc(q.ctx, job)
	}
}

// Enqueue adds a job without blocking.
func (q *JobQueue[T]) Enqueue(job T) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.stopped {
		return false
	}
	select {
	case q.jobs <- job:
		return true
	default:
		return false
	}
}

// Stop stops accepting jobs, lets the workers drain the buffer and waits
// for them.
func (q *JobQueue[T]) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
	q.cancel()
}

// QueueSize returns the current number of jobs in the queue.
func (q *JobQueue[T]) QueueSize() int {
	return len(q.jobs)
}
