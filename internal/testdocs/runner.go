package testdocs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/veridoc/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete document test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting veridoc document test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("documents", config.NumDocs),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("pollWindow", config.PollWindow.String()),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate documents
	docs, err := generateDocuments(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("document generation failed: %w", err)
	}

	// Step 3: Submit documents concurrently
	submissions, err := submitDocuments(ctx, config, docs, stats)
	if err != nil {
		return fmt.Errorf("document submission failed: %w", err)
	}

	// Step 4: Poll jobs until they settle
	outcomes, err := pollJobs(ctx, config, submissions, stats)
	if err != nil {
		return fmt.Errorf("job polling failed: %w", err)
	}

	// Step 5: Verify outcomes against generation profiles
	if err := verifyResults(ctx, config, outcomes, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 6: Save documents to file
	if err := saveDocumentsToFile(ctx, config, docs); err != nil {
		logger.Get().Warn(ctx, "failed to save documents to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveDocumentsToFile saves the generated documents to a JSON file.
func saveDocumentsToFile(ctx context.Context, config *Config, docs []Document) error {
	if len(docs) == 0 {
		return fmt.Errorf("no documents to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_documents_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write documents to file
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	// Write JSON array
	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, doc := range docs {
		jsonData, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal document %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write document %d: %w", i, err)
		}

		// Add comma except for last document
		if i < len(docs)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "documents saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var acceptRate, docsPerSecond float64

	if stats.DocsSubmitted > 0 {
		acceptRate = float64(stats.DocsAccepted) / float64(stats.DocsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		docsPerSecond = float64(stats.DocsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("docsGenerated", stats.DocsGenerated),
		logger.Int("docsSubmitted", stats.DocsSubmitted),
		logger.Int("docsAccepted", stats.DocsAccepted),
		logger.Int("docsDuplicate", stats.DocsDuplicate),
		logger.Int("docsRejected", stats.DocsRejected),
		logger.Int("jobsCompleted", stats.JobsCompleted),
		logger.Int("jobsFailed", stats.JobsFailed),
		logger.Int("jobsTimedOut", stats.JobsTimedOut),
		logger.Int("documentsValid", stats.DocumentsValid),
		logger.Int("eligible", stats.Eligible),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("docsPerSecond", docsPerSecond))
}
