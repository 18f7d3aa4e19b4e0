// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/veridoc/internal/domain/dedupe"
	"github.com/okian/veridoc/internal/domain/eligibility"
	"github.com/okian/veridoc/internal/domain/model"
	"github.com/okian/veridoc/internal/domain/types"
	"github.com/okian/veridoc/internal/domain/verification"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// VerifySync runs the pipeline inline and returns the finished report.
	VerifySync(ctx context.Context, in verification.Input) (types.Report, error)

	// SubmitJob queues a verification for async processing. The returned
	// bool is false on backpressure.
	SubmitJob(ctx context.Context, requestID string, in verification.Input) (string, bool)

	// Job returns the stored record for an async verification.
	Job(ctx context.Context, id string) (types.JobRecord, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler        *HealthHandler
	statsHandler         *StatsHandler
	verifyHandler        *VerifyHandler
	verificationsHandler *VerificationsHandler
	dashboardHandler     *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:        NewHealthHandler(),
		statsHandler:         NewStatsHandler(statsProvider),
		verifyHandler:        NewVerifyHandler(deps),
		verificationsHandler: NewVerificationsHandler(deps),
		dashboardHandler:     newdashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/verify", MetricsMiddleware(s.verifyHandler.HandleVerify, "verify"))
	mux.HandleFunc("/verifications", MetricsMiddleware(s.verificationsHandler.HandleSubmit, "verifications"))
	mux.HandleFunc("/verifications/", MetricsMiddleware(s.verificationsHandler.HandleGetJob, "verification_status"))
}

// applicantPayload mirrors the OpenAPI schema for the applicant claim.
type applicantPayload struct {
	FullName       string `json:"full_name"`
	DateOfBirth    string `json:"date_of_birth"`
	PassportNumber string `json:"passport_number"`
	Nationality    string `json:"nationality"`
	VisaType       string `json:"visa_type"`
}

// verifyRequest mirrors the OpenAPI schema for POST /verify and
// POST /verifications. Image holds base64-encoded bytes; Text carries
// pre-extracted document text when no image is available.
type verifyRequest struct {
	RequestID string              `json:"request_id,omitempty"`
	Image     string              `json:"image,omitempty"`
	Text      string              `json:"text,omitempty"`
	Applicant applicantPayload    `json:"applicant"`
	Policy    *eligibility.Policy `json:"policy,omitempty"`
}

// validate checks the fields shared by the sync and async endpoints.
func (v verifyRequest) validate() error {
	if strings.TrimSpace(v.Image) == "" && strings.TrimSpace(v.Text) == "" {
		return errors.New("missing image or text")
	}
	return nil
}

// input decodes the request into a pipeline input.
func (v verifyRequest) input() (verification.Input, error) {
	in := verification.Input{
		Text: v.Text,
		Applicant: model.Applicant{
			FullName:       v.Applicant.FullName,
			DateOfBirth:    v.Applicant.DateOfBirth,
			PassportNumber: v.Applicant.PassportNumber,
			Nationality:    v.Applicant.Nationality,
			VisaType:       v.Applicant.VisaType,
		},
		Policy: v.Policy,
	}
	if v.Image != "" {
		image, err := base64.StdEncoding.DecodeString(v.Image)
		if err != nil {
			return verification.Input{}, errors.New("invalid image; must be base64")
		}
		in.Image = image
	}
	return in, nil
}

// ackResponse acknowledges an async submission.
type ackResponse struct {
	Status    string `json:"status"`
	ID        string `json:"id,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound allows the API to translate upstream not-found errors to 404.
// This stays generic to avoid tight coupling with specific packages.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}
