// Package repository defines the verification job store interface and errors.
package repository

import (
	"context"

	"github.com/okian/veridoc/internal/domain/types"
)

// Store provides read/write access to async verification job state.
type Store interface {
	// Create registers a freshly accepted job in the pending state.
	// Returns ErrExists if the job ID is already tracked.
	Create(ctx context.Context, id, requestID string) error

	// MarkProcessing moves a job to the processing state.
	// Returns ErrNotFound if the job is unknown.
	MarkProcessing(ctx context.Context, id string) error

	// StoreReport records the finished report and moves the job to done.
	// Returns ErrNotFound if the job is unknown.
	StoreReport(ctx context.Context, id string, report types.Report) error

	// MarkFailed records a terminal failure for the job.
	// Returns ErrNotFound if the job is unknown.
	MarkFailed(ctx context.Context, id string, cause string) error

	// Get returns the current record for a job.
	// Returns ErrNotFound if the job is unknown.
	Get(ctx context.Context, id string) (types.JobRecord, error)

	// Count returns the number of job records currently held.
	Count(ctx context.Context) int
}
