// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"censor-scan/internal/observability"
)

// MinWorkers is the smallest pool size; one crawler and one scanner can
// always run side by side.
const MinWorkers = 2

// DefaultWorkers returns the pool size used when none is configured
func DefaultWorkers() int {
	return max(4*runtime.NumCPU(), MinWorkers)
}

// WorkerPool runs crawler passes and directory scans on a fixed set of
// goroutines
type WorkerPool struct {
	workers  int
	jobs     chan *Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *slog.Logger
	observer *observability.Observer

	inFlight atomic.Int64
	mu       sync.RWMutex
	started  bool
	stopped  bool
}

// Job is one unit of work
type Job struct {
	// Kind names the job for logs, e.g. "discover" or "scan"
	Kind string
	// Target is the directory the job works on
	Target string
	Run    func(ctx context.Context) error
}

// NewWorkerPool creates a pool with the given number of workers
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	if workers < MinWorkers {
		workers = MinWorkers
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &WorkerPool{
		workers:  workers,
		jobs:     make(chan *Job, workers*2),
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
		observer: observability.NewObserver(logger),
	}
}

// Workers returns the pool size
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Start initializes worker goroutines
func (wp *WorkerPool) Start() {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.started || wp.stopped {
		return
	}
	wp.started = true

	for i := range wp.workers {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop cancels the pool context, lets queued jobs return and waits for the
// workers to exit
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return
	}
	wp.stopped = true
	wp.cancel()
	close(wp.jobs)
	wp.mu.Unlock()

	wp.wg.Wait()
}

// TrySubmit queues a job without blocking. It reports false when the queue
// is full or the pool is stopped.
func (wp *WorkerPool) TrySubmit(job *Job) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.stopped {
		return false
	}

	wp.inFlight.Add(1)
	select {
	case wp.jobs <- job:
		return true
	default:
		wp.inFlight.Add(-1)
		return false
	}
}

// InFlight returns the number of jobs queued or running
func (wp *WorkerPool) InFlight() int {
	return int(wp.inFlight.Load())
}

// worker processes jobs from the queue
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobs {
		wp.processJob(job, id)
	}
}

// processJob runs one job, isolating panics so a bad file cannot take the
// worker down
func (wp *WorkerPool) processJob(job *Job, workerID int) {
	defer wp.inFlight.Add(-1)

	start := time.Now()
	finishTiming := wp.observer.StartTiming("worker_pool", job.Kind, job.Target)

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("job panicked: %v", r)
			}
		}()
		return job.Run(wp.ctx)
	}()

	if err != nil {
		wp.logger.Debug("job failed", "kind", job.Kind, "target", job.Target, "worker_id", workerID, "error", err)
	}
	finishTiming(err == nil, map[string]any{
		"worker_id":   workerID,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}
