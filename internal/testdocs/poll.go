package testdocs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// outcome pairs a submitted document with the job record it ended up with.
type outcome struct {
	doc Document
	job JobView
}

// pollJobs waits for every accepted submission to reach a terminal state,
// polling the status endpoint concurrently.
func pollJobs(ctx context.Context, config *Config, submissions []submission, stats *Stats) ([]outcome, error) {
	log.Printf("polling %d jobs with %d workers...", len(submissions), config.Workers)

	client := newHTTPClient(config.Timeout)

	var (
		completed int64
		failed    int64
		timedOut  int64

		mu       sync.Mutex
		outcomes []outcome
		wg       sync.WaitGroup
	)

	subChan := make(chan submission, config.Workers*WorkerChannelMultiplier)

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for sub := range subChan {
				job, err := pollSingleJob(ctx, client, config, sub.jobID)
				if err != nil {
					atomic.AddInt64(&timedOut, 1)
					continue
				}
				switch job.Status {
				case "done":
					atomic.AddInt64(&completed, 1)
				case "failed":
					atomic.AddInt64(&failed, 1)
				}
				mu.Lock()
				outcomes = append(outcomes, outcome{doc: sub.doc, job: job})
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(subChan)
		for _, sub := range submissions {
			select {
			case <-ctx.Done():
				return
			case subChan <- sub:
			}
		}
	}()

	wg.Wait()

	stats.JobsCompleted = int(atomic.LoadInt64(&completed))
	stats.JobsFailed = int(atomic.LoadInt64(&failed))
	stats.JobsTimedOut = int(atomic.LoadInt64(&timedOut))

	log.Printf(`job polling completed:
   Done: %d
   Failed: %d
   Timed out: %d
`, stats.JobsCompleted, stats.JobsFailed, stats.JobsTimedOut)

	return outcomes, nil
}

// pollSingleJob polls one job until it leaves pending/processing or the
// poll window closes.
func pollSingleJob(ctx context.Context, client *HTTPClient, config *Config, jobID string) (JobView, error) {
	url := config.BaseURL + "/verifications/" + jobID
	deadline := time.Now().Add(config.PollWindow)

	for {
		resp, err := client.Get(ctx, url)
		if err != nil {
			return JobView{}, fmt.Errorf("failed to fetch job %s: %w", jobID, err)
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return JobView{}, fmt.Errorf("failed to read job %s: %w", jobID, err)
		}
		if resp.StatusCode != StatusOK {
			return JobView{}, fmt.Errorf("job %s returned status %d", jobID, resp.StatusCode)
		}

		var job JobView
		if err := json.Unmarshal(body, &job); err != nil {
			return JobView{}, fmt.Errorf("failed to decode job %s: %w", jobID, err)
		}
		if job.Status == "done" || job.Status == "failed" {
			return job, nil
		}

		if time.Now().After(deadline) {
			return job, fmt.Errorf("job %s still %s after %v", jobID, job.Status, config.PollWindow)
		}

		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-time.After(PollInterval):
		}
	}
}
