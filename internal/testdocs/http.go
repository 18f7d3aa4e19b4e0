package testdocs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submission records the job id handed back for an accepted document.
type submission struct {
	doc   Document
	jobID string
}

// submitDocuments submits documents concurrently using worker pools and
// returns the accepted submissions with their job ids.
func submitDocuments(ctx context.Context, config *Config, docs []Document, stats *Stats) ([]submission, error) {
	log.Printf("submitting %d documents with %d workers...", len(docs), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/verifications"

	// Counters for statistics
	var (
		accepted  int64
		duplicate int64
		rejected  int64
		submitted int64
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	docChan := make(chan Document, config.Workers*WorkerChannelMultiplier)
	var (
		mu          sync.Mutex
		submissions []submission
		wg          sync.WaitGroup
	)

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for doc := range docChan {
				select {
				case <-ctx.Done():
					return
				default:
					result, jobID := submitSingleDocument(ctx, client, url, doc)

					// Update counters
					atomic.AddInt64(&submitted, 1)
					switch result {
					case "accepted":
						atomic.AddInt64(&accepted, 1)
						mu.Lock()
						submissions = append(submissions, submission{doc: doc, jobID: jobID})
						mu.Unlock()
					case "duplicate":
						atomic.AddInt64(&duplicate, 1)
					case "rejected":
						atomic.AddInt64(&rejected, 1)
					}

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						acc := atomic.LoadInt64(&accepted)
						dup := atomic.LoadInt64(&duplicate)
						rej := atomic.LoadInt64(&rejected)

						if config.Verbose {
							log.Printf("progress: %d/%d submitted (accepted: %d, duplicate: %d, rejected: %d)",
								total, len(docs), acc, dup, rej)
						} else {
							fmt.Printf("\rsubmitted: %d/%d (accepted: %d, duplicate: %d, rejected: %d)",
								total, len(docs), acc, dup, rej)
						}
					}
				}
			}
		}()
	}

	// Send documents to workers
	go func() {
		defer close(docChan)
		for _, doc := range docs {
			select {
			case <-ctx.Done():
				return
			case docChan <- doc:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Update stats
	stats.DocsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.DocsAccepted = int(atomic.LoadInt64(&accepted))
	stats.DocsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.DocsRejected = int(atomic.LoadInt64(&rejected))

	log.Printf(`document submission completed:
   Accepted: %d
   Duplicate: %d
   Rejected: %d
`, stats.DocsAccepted, stats.DocsDuplicate, stats.DocsRejected)

	return submissions, nil
}

// submitSingleDocument submits a single document. It returns the outcome
// and, for accepted documents, the job id.
func submitSingleDocument(ctx context.Context, client *HTTPClient, url string, doc Document) (string, string) {
	resp, err := client.Post(ctx, url, doc)
	if err != nil {
		return "rejected", ""
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "rejected", ""
	}

	switch resp.StatusCode {
	case StatusAccepted:
		var ack AckResponse
		if err := json.Unmarshal(body, &ack); err == nil {
			return "accepted", ack.ID
		}
		return "accepted", ""
	case StatusOK:
		// OK means the request id was already seen
		return "duplicate", ""
	case StatusTooMany:
		// Backpressure; the queue was full
		return "rejected", ""
	default:
		return "rejected", ""
	}
}
