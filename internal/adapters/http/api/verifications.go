// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/veridoc/internal/domain/dedupe"
	"github.com/okian/veridoc/internal/domain/types"
	"github.com/okian/veridoc/internal/domain/verification"
)

// VerificationsDependencies defines the interface for async verification
// submission and status lookups.
type VerificationsDependencies interface {
	dedupe.Deduper
	SubmitJob(ctx context.Context, requestID string, in verification.Input) (string, bool)
	Job(ctx context.Context, id string) (types.JobRecord, error)
}

// VerificationsHandler handles async verification requests.
type VerificationsHandler struct {
	deps VerificationsDependencies
}

// NewVerificationsHandler creates a new verifications handler.
func NewVerificationsHandler(deps VerificationsDependencies) *VerificationsHandler {
	return &VerificationsHandler{deps: deps}
}

// HandleSubmit handles POST /verifications requests.
func (h *VerificationsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_verification"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.RequestID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing request_id")))
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

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), req.RequestID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	// Try to enqueue for async processing
	jobID, ok := h.deps.SubmitJob(r.Context(), req.RequestID, in)
	if !ok {
		// Rollback the "seen" status since enqueue failed
		h.deps.Unrecord(r.Context(), req.RequestID)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ID: jobID, Duplicate: false})
}

// HandleGetJob handles GET /verifications/{id} requests.
func (h *VerificationsHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_verification"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /verifications/
	id := strings.TrimPrefix(r.URL.Path, "/verifications/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	record, err := h.deps.Job(r.Context(), id)
	if err != nil {
		// If upstream exposes not-found, translate; otherwise 500
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, record)
}
