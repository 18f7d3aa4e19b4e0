// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/veridoc/internal/domain/types"
	"github.com/okian/veridoc/internal/domain/verification"
)

// VerifyDependencies defines the interface for synchronous verification.
type VerifyDependencies interface {
	VerifySync(ctx context.Context, in verification.Input) (types.Report, error)
}

// VerifyHandler handles synchronous verification requests.
type VerifyHandler struct {
	deps VerifyDependencies
}

// NewVerifyHandler creates a new verify handler.
func NewVerifyHandler(deps VerifyDependencies) *VerifyHandler {
	return &VerifyHandler{deps: deps}
}

// HandleVerify handles POST /verify requests. The pipeline runs inline and
// the full report is returned in the response body.
func (h *VerifyHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	const op = "api.verify"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	report, err := h.deps.VerifySync(r.Context(), in)
	if err != nil {
		if errors.Is(err, verification.ErrNoInput) {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
