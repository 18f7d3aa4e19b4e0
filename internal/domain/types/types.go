// Package types contains common types used across the application
package types

import (
	"time"

	"github.com/okian/veridoc/internal/domain/model"
)

// CheckResult is a single pass/fail verdict produced by a check battery.
type CheckResult struct {
	Check   string `json:"check"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// Report aggregates one verification run.
type Report struct {
	Document          model.ExtractedDocument `json:"document"`
	MRZValid          bool                    `json:"mrz_valid"`
	MRZErrors         []string                `json:"mrz_errors,omitempty"`
	ValidationChecks  []CheckResult           `json:"validation_checks"`
	EligibilityChecks []CheckResult           `json:"eligibility_checks"`
	DocumentValid     bool                    `json:"document_valid"`
	Eligible          bool                    `json:"eligible"`
	OverallConfidence int                     `json:"overall_confidence"`
	Summary           string                  `json:"summary"`
}

// JobStatus tracks an async verification job through its lifetime.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobDone       JobStatus = "done"
	JobFailed     JobStatus = "failed"
)

// JobRecord is the stored state of an async verification job.
type JobRecord struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id,omitempty"`
	Status      JobStatus `json:"status"`
	Report      *Report   `json:"report,omitempty"`
	Error       string    `json:"error,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
