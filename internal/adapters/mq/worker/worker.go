// Package worker defines worker contracts for asynchronous document
// verification.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/veridoc/internal/adapters/mq/queue"
	"github.com/okian/veridoc/internal/domain/types"
	"github.com/okian/veridoc/internal/domain/verification"
	"github.com/okian/veridoc/pkg/logger"
	"github.com/okian/veridoc/pkg/metrics"
)

// Default worker configuration constants.
const (
	// OCR runs shell out to an external process, so the pool stays small
	// relative to CPU count.
	defaultWorkerMultiplier = 4
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Verifier runs the verification pipeline for one job.
type Verifier interface {
	Verify(ctx context.Context, in verification.Input) (types.Report, error)
}

// ResultStore receives job state transitions and finished reports.
type ResultStore interface {
	MarkProcessing(ctx context.Context, id string) error
	StoreReport(ctx context.Context, id string, report types.Report) error
	MarkFailed(ctx context.Context, id string, cause string) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes verification jobs and writes results using the provided
// interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will process any remaining jobs before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing jobs.
type InMemoryWorker struct {
	queue    Queue
	verifier Verifier
	results  ResultStore
	name     string

	// Shutdown control
	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, verifier Verifier, results ResultStore, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		verifier: verifier,
		results:  results,
		name:     "worker", // default name
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	// Set up logger with worker name if not already set
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	jobChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing job", logger.Error(err))
			}
		}
	}
}

// stop signals the worker loop to exit. Safe to call more than once.
func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob handles a single verification job.
func (w *InMemoryWorker) processJob(ctx context.Context, job queue.Job) error { //nolint:gocritic // hugeParam: Job must be passed by value for channel semantics
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordWorkerProcessingLatency(float64(latency))
	}()

	if err := w.results.MarkProcessing(ctx, job.ID); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("mark job %s processing: %w", job.ID, err)
	}

	report, err := w.verifier.Verify(ctx, job.Input)
	if err != nil {
		metrics.RecordVerificationFailed()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "verify_error")
		w.logger.Error(ctx, "verification failed for job",
			logger.String("jobID", job.ID),
			logger.Error(err),
		)
		if storeErr := w.results.MarkFailed(ctx, job.ID, err.Error()); storeErr != nil {
			w.logger.Error(ctx, "failed to record job failure",
				logger.String("jobID", job.ID),
				logger.Error(storeErr),
			)
		}
		return fmt.Errorf("verify job %s: %w", job.ID, err)
	}

	if err := w.results.StoreReport(ctx, job.ID, report); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("store report for job %s: %w", job.ID, err)
	}

	metrics.RecordVerificationProcessed()
	metrics.RecordVerificationOutcome(report.DocumentValid, report.Eligible)
	metrics.RecordMRZParsed(mrzLayout(&report), report.MRZValid)
	metrics.RecordMRZChecksumFailures(len(report.MRZErrors))
	if !job.EnqueuedAt.IsZero() {
		metrics.RecordPipelineLatency(float64(time.Since(job.EnqueuedAt).Milliseconds()))
	}

	return nil
}

// mrzLayout derives the metric label from the echoed MRZ lines.
func mrzLayout(r *types.Report) string {
	switch {
	case r.Document.MRZLine3 != "":
		return "td1"
	case r.Document.MRZLine1 != "":
		return "td3"
	default:
		return "unknown"
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers  []*InMemoryWorker
	queue    Queue
	verifier Verifier
	results  ResultStore

	// Shutdown control
	shutdown chan struct{}
	stopOnce sync.Once

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, verifier Verifier, results ResultStore) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		verifier: verifier,
		results:  results,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			q,
			verifier,
			results,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.shutdown) })

	for _, worker := range p.workers {
		worker.stop()
	}

	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new jobs
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for _, worker := range p.workers {
		worker.stop()
	}

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
