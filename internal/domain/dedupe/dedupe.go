// Package dedupe tracks request ids so resubmitted verification requests
// are acknowledged instead of re-processed.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen request ids to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it
	// if not. Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an id, allowing a retry. Used when a request was
	// marked seen but failed to enqueue (backpressure).
	Unrecord(ctx context.Context, id string)

	Size() int64
}

const defaultMaxSize = 50000

// inMemoryDeduper keeps ids in a map plus a fixed ring recording insertion
// order; when the ring wraps, the oldest id is evicted.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	ring    []string
	next    int
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a bounded in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{}, d.maxSize)
	d.ring = make([]string, d.maxSize)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	// Evict whatever occupies the ring slot about to be reused.
	if old := d.ring[d.next]; old != "" {
		if _, ok := d.seen[old]; ok {
			delete(d.seen, old)
			d.size.Add(-1)
		}
	}
	d.ring[d.next] = id
	d.next = (d.next + 1) % d.maxSize
	d.seen[id] = struct{}{}
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		delete(d.seen, id)
		d.size.Add(-1)
	}
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
