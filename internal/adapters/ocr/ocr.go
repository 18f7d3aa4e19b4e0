// Package ocr extracts text from document images by shelling out to the
// tesseract engine.
//
// The engine runs as an external process so tests can substitute a stub
// Runner and the service binary carries no cgo dependency.
package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/okian/veridoc/pkg/metrics"
)

// Default engine configuration constants.
const (
	defaultBinary   = "tesseract"
	defaultLanguage = "eng"

	// stderr excerpts carried in errors are capped at 8KB.
	maxStderrExcerpt = 8 << 10
)

// Engine recognizes text in document images via an external OCR process.
type Engine struct {
	binary      string
	language    string
	psm         int
	tessdataDir string
	tempDir     string
	runner      Runner
}

// NewEngine creates an OCR engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		binary:   defaultBinary,
		language: defaultLanguage,
		tempDir:  os.TempDir(),
		runner:   execRunner{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Recognize writes the image to a scratch file, runs the engine against it
// and returns the recognized text.
func (e *Engine) Recognize(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		metrics.RecordOCRError()
		metrics.RecordErrorByComponent("ocr", "empty_image")
		return "", ErrEmptyImage
	}

	path := filepath.Join(e.tempDir, "veridoc-"+uuid.NewString())
	if err := os.WriteFile(path, image, 0o600); err != nil {
		metrics.RecordOCRError()
		metrics.RecordErrorByComponent("ocr", "scratch_write_failed")
		return "", fmt.Errorf("write scratch image: %w", err)
	}
	defer os.Remove(path)

	args := []string{path, "stdout", "-l", e.language}
	if e.psm > 0 {
		args = append(args, "--psm", strconv.Itoa(e.psm))
	}
	if e.tessdataDir != "" {
		args = append(args, "--tessdata-dir", e.tessdataDir)
	}

	out, errb, err := e.runner.Run(ctx, e.binary, args...)
	if err != nil {
		metrics.RecordOCRError()
		metrics.RecordErrorByComponent("ocr", "exec_failed")
		return "", fmt.Errorf("%s: %w: %s", e.binary, err, truncate(string(errb), maxStderrExcerpt))
	}

	return string(out), nil
}
