package batch

import (
	"context"
	"runtime"
	"sync"
)

// WorkerPool runs submitted jobs on a fixed number of goroutines.
type WorkerPool struct {
	workers  int
	jobQueue chan func()
	wg       sync.WaitGroup
	once     sync.Once
	close    sync.Once
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &WorkerPool{
		workers:  workers,
		jobQueue: make(chan func()),
	}
}

// Workers returns the number of goroutines the pool runs.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Start initializes and starts all workers in the pool
func (wp *WorkerPool) Start() {
	wp.once.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

func (wp *WorkerPool) worker() {
	for job := range wp.jobQueue {
		job()
		wp.wg.Done()
	}
}

// Submit hands job to an idle worker, blocking until one is free. It
// returns false without running job when ctx is done first.
func (wp *WorkerPool) Submit(ctx context.Context, job func()) bool {
	if ctx.Err() != nil {
		return false
	}
	wp.wg.Add(1)
	select {
	case wp.jobQueue <- job:
		return true
	case <-ctx.Done():
		wp.wg.Done()
		return false
	}
}

// Wait waits for all submitted jobs to complete
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Close stops the workers once their current jobs finish. Submit must not
// be called after Close.
func (wp *WorkerPool) Close() {
	wp.close.Do(func() { close(wp.jobQueue) })
}
