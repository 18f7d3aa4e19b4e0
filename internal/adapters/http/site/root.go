// Package site handles the embedded verification front page.
package site

import (
	"context"
	"errors"
	"net/http"
)

// Error constants
var (
	ErrGenerate = errors.New("site generation failed")
	ErrServe    = errors.New("site serve failed")
)

// Register attaches the embedded front page routes to mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	// Serve the embedded front page at root /
	files := http.FileServer(FS())
	mux.Handle("/", files)

}

// RootHandler handles root path requests
type RootHandler struct{}

// NewRootHandler creates a new root handler
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// HandleRoot handles GET / requests and serves the embedded front page
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	// Serve the front page
	files := http.FileServer(FS())
	files.ServeHTTP(w, r)
}
