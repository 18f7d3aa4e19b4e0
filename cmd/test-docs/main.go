package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/veridoc/internal/testdocs"
)

// Default configuration constants.
const (
	defaultNumDocs     = 1000
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultPollWindow  = time.Minute
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numDocs    = flag.Int("docs", defaultNumDocs, "Number of documents to generate and submit")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		pollWindow = flag.Duration("poll", defaultPollWindow, "How long to wait for each job to finish")
		outputFile = flag.String("output", "", "Output file for generated documents (default: generated_documents_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testdocs.ShowHelp()
		return
	}

	// Setup logging
	if err := testdocs.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &testdocs.Config{
		BaseURL:    *baseURL,
		NumDocs:    *numDocs,
		Workers:    *workers,
		Timeout:    *timeout,
		PollWindow: *pollWindow,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	// Run the test
	if err := testdocs.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return
	}
}
