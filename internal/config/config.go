// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults, Load(ctx) to layer
//   file and environment overrides on top.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"

	"github.com/okian/veridoc/internal/domain/eligibility"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory verification job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of verification workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the request-id deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxJobRecords caps retained verification job records; the oldest
	// are evicted once the cap is hit.
	MaxJobRecords int `koanf:"max_job_records"`

	// JobStoreShards configures the number of shards in the job store.
	JobStoreShards int `koanf:"job_store_shards"`

	// OCRBinary names the tesseract executable.
	OCRBinary string `koanf:"ocr_binary"`

	// OCRLanguage selects the recognition language(s), e.g. "eng" or "eng+deu".
	OCRLanguage string `koanf:"ocr_language"`

	// OCRPageSegMode sets tesseract's page segmentation mode; 0 leaves
	// the engine default.
	OCRPageSegMode int `koanf:"ocr_page_seg_mode"`

	// OCRTessdataDir overrides the tessdata directory when non-empty.
	OCRTessdataDir string `koanf:"ocr_tessdata_dir"`

	// Policy is the default eligibility policy applied when a request
	// does not carry its own.
	Policy eligibility.Policy `koanf:"policy"`
}

// New creates a Config populated with service defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		Addr:           ":9080",
		QueueSize:      10_000,
		WorkerCount:    runtime.NumCPU() * 4,
		DedupeSize:     50_000,
		MaxJobRecords:  100_000,
		JobStoreShards: 16,
		OCRBinary:      "tesseract",
		OCRLanguage:    "eng",
		Policy:         eligibility.DefaultPolicy(),
	}
}
