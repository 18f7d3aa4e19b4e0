package ocr

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/okian/veridoc/pkg/metrics"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	metrics.RecordOCRLatency(float64(time.Since(start).Milliseconds()))

	return out.Bytes(), errb.Bytes(), err
}

// truncate caps stderr excerpts carried inside error messages.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "...(truncated)"
}
