package ocr

import (
	"errors"
)

// Sentinel kinds for OCR errors.
var (
	ErrEmptyImage = errors.New("empty image")
)
