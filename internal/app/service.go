// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/okian/veridoc/internal/adapters/mq/queue"
	workerpool "github.com/okian/veridoc/internal/adapters/mq/worker"
	"github.com/okian/veridoc/internal/adapters/repository"
	"github.com/okian/veridoc/internal/domain/dedupe"
	"github.com/okian/veridoc/internal/domain/eligibility"
	"github.com/okian/veridoc/internal/domain/types"
	"github.com/okian/veridoc/internal/domain/verification"
	"github.com/okian/veridoc/pkg/logger"
	"github.com/okian/veridoc/pkg/metrics"
)

// Service implements the API dependencies for the verification system.
type Service struct {
	mu sync.RWMutex

	// Core components
	jobs       repository.Store
	deduper    dedupe.Deduper
	queue      jobqueue.Queue
	verifier   *verification.Verifier
	workerPool *workerpool.Pool

	// Configuration
	workerCount    int
	queueSize      int
	dedupeSize     int
	maxJobRecords  int
	jobStoreShards int
	ocr            verification.OCR
	defaultPolicy  *eligibility.Policy

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxJobRecords caps how many job records are retained.
func WithMaxJobRecords(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxJobRecords = n
		}
	}
}

// WithJobStoreShards sets the shard count of the job store.
func WithJobStoreShards(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.jobStoreShards = n
		}
	}
}

// WithOCR sets the text-recognition engine used for image inputs.
// Without one, image requests fail while text requests still work.
func WithOCR(ocr verification.OCR) Option {
	return func(s *Service) {
		if ocr != nil {
			s.ocr = ocr
		}
	}
}

// WithDefaultPolicy sets the eligibility policy applied when a request
// carries none.
func WithDefaultPolicy(p eligibility.Policy) Option {
	return func(s *Service) {
		s.defaultPolicy = &p
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU() * 4,
		queueSize:      10000,
		dedupeSize:     50000,
		maxJobRecords:  100000,
		jobStoreShards: 16,
		stopCh:         make(chan struct{}),
		logger:         nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting verification service...")

	// Initialize components
	s.jobs = repository.NewMemStore(
		repository.WithMaxRecords(s.maxJobRecords),
		repository.WithShardCount(s.jobStoreShards),
	)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
		jobqueue.WithBufferSize(s.queueSize),
	)

	verifierOpts := []verification.Option{}
	if s.ocr != nil {
		verifierOpts = append(verifierOpts, verification.WithOCR(s.ocr))
	}
	if s.defaultPolicy != nil {
		verifierOpts = append(verifierOpts, verification.WithDefaultPolicy(*s.defaultPolicy))
	}
	s.verifier = verification.New(verifierOpts...)

	// Create and start the worker pool
	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s.verifier, s.jobs)
	s.workerPool.Start(ctx)

	metrics.UpdateQueueCapacity(s.queueSize)
	metrics.UpdateWorkerCount(s.workerPool.Size())

	s.started = true
	s.logger.Info(ctx, "verification service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping verification service...")

	// Close the queue first so workers drain what is left
	if q, ok := s.queue.(*jobqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	// Stop worker pool
	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	// Signal cleanup loop to stop
	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "verification service stopped")
}

// SeenAndRecord atomically checks if a request id was seen and records it if
// not. Returns true if the request was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordVerificationDuplicate()
	}
	return seen
}

// Unrecord removes a request ID from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// VerifySync runs the verification pipeline inline and returns the report.
func (s *Service) VerifySync(ctx context.Context, in verification.Input) (types.Report, error) {
	return s.verifier.Verify(ctx, in)
}

// SubmitJob registers a job record and enqueues the input for asynchronous
// processing. It returns the job id and false when the queue rejected the
// job; the caller is expected to roll back its dedupe record and signal
// backpressure.
func (s *Service) SubmitJob(ctx context.Context, requestID string, in verification.Input) (string, bool) {
	id := uuid.NewString()

	if err := s.jobs.Create(ctx, id, requestID); err != nil {
		s.logger.Error(ctx, "failed to create job record",
			logger.String("jobID", id),
			logger.Error(err),
		)
		return "", false
	}

	job := jobqueue.Job{
		ID:         id,
		RequestID:  requestID,
		Input:      in,
		EnqueuedAt: time.Now(),
	}
	if !s.queue.Enqueue(ctx, job) {
		// The record stays behind as failed so the id remains resolvable.
		_ = s.jobs.MarkFailed(ctx, id, "queue full")
		s.logger.Warn(ctx, "job rejected by queue",
			logger.String("jobID", id),
			logger.String("requestID", requestID),
		)
		return "", false
	}

	metrics.UpdateQueueSize(s.queue.Len(ctx))
	return id, true
}

// Job returns the stored record for a job id.
func (s *Service) Job(ctx context.Context, id string) (types.JobRecord, error) {
	return s.jobs.Get(ctx, id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		storedJobs := s.jobs.Count(ctx)

		stats["queueLength"] = queueLen
		stats["storedJobs"] = storedJobs
		stats["dedupeEntries"] = s.deduper.Size()

		// Update metrics
		metrics.UpdateQueueSize(queueLen)
		if s.queueSize > 0 {
			metrics.UpdateQueueUtilization(float64(queueLen) / float64(s.queueSize))
		}
		metrics.UpdateWorkerCount(s.workerPool.Size())
		metrics.UpdateRepositoryJobsTotal(storedJobs)

		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		metrics.UpdateSystemMemoryUsage(mem.Alloc)
		metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	}

	return stats
}
