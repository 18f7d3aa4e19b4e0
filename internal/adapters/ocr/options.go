package ocr

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithBinary sets the OCR executable path.
func WithBinary(binary string) Option {
	return func(e *Engine) {
		if binary != "" {
			e.binary = binary
		}
	}
}

// WithLanguage sets the recognition language passed via -l.
func WithLanguage(language string) Option {
	return func(e *Engine) {
		if language != "" {
			e.language = language
		}
	}
}

// WithPageSegmentationMode sets the engine --psm value.
// Values below 1 keep the engine default.
func WithPageSegmentationMode(psm int) Option {
	return func(e *Engine) {
		if psm > 0 {
			e.psm = psm
		}
	}
}

// WithTessdataDir sets a custom tessdata directory.
func WithTessdataDir(dir string) Option {
	return func(e *Engine) {
		if dir != "" {
			e.tessdataDir = dir
		}
	}
}

// WithTempDir sets the directory for scratch image files.
func WithTempDir(dir string) Option {
	return func(e *Engine) {
		if dir != "" {
			e.tempDir = dir
		}
	}
}

// WithRunner sets the command runner, used by tests to stub the engine.
func WithRunner(r Runner) Option {
	return func(e *Engine) {
		if r != nil {
			e.runner = r
		}
	}
}
