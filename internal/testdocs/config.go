package testdocs

import "time"

// Config holds configuration for the document test
type Config struct {
	BaseURL    string        // Base URL of the service
	NumDocs    int           // Number of documents to generate
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	PollWindow time.Duration // How long to wait for jobs to finish
	OutputFile string        // Output file for documents
	LogFile    string        // Log file for test output
	Verbose    bool          // Enable verbose logging
}

// Applicant is the claimed identity submitted alongside a document.
type Applicant struct {
	FullName       string `json:"full_name"`
	DateOfBirth    string `json:"date_of_birth"`
	PassportNumber string `json:"passport_number"`
	Nationality    string `json:"nationality"`
	VisaType       string `json:"visa_type,omitempty"`
}

// Document represents a verification request to be submitted
type Document struct {
	RequestID string    `json:"request_id"`
	Text      string    `json:"text"`
	Applicant Applicant `json:"applicant"`

	// Profile names the generation profile; kept out of the payload.
	Profile string `json:"-"`
}

// AckResponse represents the response from document submission
type AckResponse struct {
	Status    string `json:"status"`
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

// JobView is the subset of the job record the test inspects.
type JobView struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error"`
	Report *struct {
		MRZValid      bool `json:"mrz_valid"`
		DocumentValid bool `json:"document_valid"`
		Eligible      bool `json:"eligible"`
	} `json:"report"`
}

// Stats holds test statistics
type Stats struct {
	DocsGenerated  int
	DocsSubmitted  int
	DocsAccepted   int
	DocsDuplicate  int
	DocsRejected   int
	JobsCompleted  int
	JobsFailed     int
	JobsTimedOut   int
	DocumentsValid int
	Eligible       int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
