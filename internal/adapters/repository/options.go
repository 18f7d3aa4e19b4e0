package repository

import "time"

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithShardCount sets the number of map shards.
func WithShardCount(count int) Option {
	return func(s *MemStore) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithMaxRecords bounds the total number of job records held in memory.
func WithMaxRecords(maxRecords int) Option {
	return func(s *MemStore) {
		if maxRecords > 0 {
			s.maxRecords = maxRecords
		}
	}
}

// WithClock overrides the timestamp source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *MemStore) {
		if now != nil {
			s.now = now
		}
	}
}
