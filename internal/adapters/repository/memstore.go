package repository

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/veridoc/internal/domain/types"
	"github.com/okian/veridoc/pkg/metrics"
)

// Sharded, in-memory Store implementation.
//
// Job records are looked up by ID only, so a hash-sharded map keeps lock
// contention low under concurrent worker writes and API reads. Each shard
// holds its own bound; the oldest record in a shard is evicted when the
// bound is reached, which keeps memory flat for long-running deployments
// without a durable backend.

// Default store configuration constants.
const (
	defaultShardCount = 16
	defaultMaxRecords = 100000
)

// MemStore implements Store using hash-sharded maps with FIFO eviction.
type MemStore struct {
	shards     []*shard
	shardCount int
	maxRecords int
	size       atomic.Int64
	now        func() time.Time
}

type shard struct {
	mu      sync.RWMutex
	records map[string]*types.JobRecord
	order   []string // insertion order, oldest first
}

// NewMemStore creates a new in-memory job store with configuration options.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		shardCount: defaultShardCount,
		maxRecords: defaultMaxRecords,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{records: make(map[string]*types.JobRecord)}
	}

	metrics.UpdateRepositoryJobsTotal(0)

	return s
}

// shardFor hashes the job ID onto a shard.
func (s *MemStore) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[h.Sum32()%uint32(s.shardCount)]
}

// shardBound is the per-shard record limit derived from the global bound.
func (s *MemStore) shardBound() int {
	bound := s.maxRecords / s.shardCount
	if bound < 1 {
		bound = 1
	}
	return bound
}

// Create registers a freshly accepted job in the pending state.
func (s *MemStore) Create(ctx context.Context, id, requestID string) error {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, exists := sh.records[id]; exists {
		return ErrExists
	}

	if len(sh.order) >= s.shardBound() {
		oldest := sh.order[0]
		sh.order = sh.order[1:]
		delete(sh.records, oldest)
		s.size.Add(-1)
		metrics.RecordRepositoryEviction()
	}

	now := s.now()
	sh.records[id] = &types.JobRecord{
		ID:          id,
		RequestID:   requestID,
		Status:      types.JobPending,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	sh.order = append(sh.order, id)
	total := s.size.Add(1)
	metrics.UpdateRepositoryJobsTotal(int(total))

	return nil
}

// MarkProcessing moves a job to the processing state.
func (s *MemStore) MarkProcessing(ctx context.Context, id string) error {
	return s.transition(id, func(rec *types.JobRecord) {
		rec.Status = types.JobProcessing
	})
}

// StoreReport records the finished report and moves the job to done.
func (s *MemStore) StoreReport(ctx context.Context, id string, report types.Report) error {
	return s.transition(id, func(rec *types.JobRecord) {
		rec.Status = types.JobDone
		rec.Report = &report
		rec.Error = ""
	})
}

// MarkFailed records a terminal failure for the job.
func (s *MemStore) MarkFailed(ctx context.Context, id string, cause string) error {
	return s.transition(id, func(rec *types.JobRecord) {
		rec.Status = types.JobFailed
		rec.Error = cause
	})
}

// transition applies a state mutation under the shard lock.
func (s *MemStore) transition(id string, mutate func(*types.JobRecord)) error {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, exists := sh.records[id]
	if !exists {
		return ErrNotFound
	}
	mutate(rec)
	rec.UpdatedAt = s.now()
	return nil
}

// Get returns the current record for a job.
func (s *MemStore) Get(ctx context.Context, id string) (types.JobRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	rec, exists := sh.records[id]
	if !exists {
		return types.JobRecord{}, ErrNotFound
	}
	// Copy so callers never observe in-flight worker mutations.
	out := *rec
	if rec.Report != nil {
		report := *rec.Report
		out.Report = &report
	}
	return out, nil
}

// Count returns the number of job records currently held.
func (s *MemStore) Count(ctx context.Context) int {
	return int(s.size.Load())
}
