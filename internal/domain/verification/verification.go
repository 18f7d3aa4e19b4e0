// Package verification runs the full document pipeline: raw text (from the
// OCR collaborator when the input is an image) through the MRZ codec, the
// heuristic extractor and both check batteries, into one aggregate report.
// Aside from the OCR call the pipeline is a pure function of its inputs.
package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/veridoc/internal/domain/eligibility"
	"github.com/okian/veridoc/internal/domain/extract"
	"github.com/okian/veridoc/internal/domain/model"
	"github.com/okian/veridoc/internal/domain/mrz"
	"github.com/okian/veridoc/internal/domain/types"
	"github.com/okian/veridoc/internal/domain/validate"
)

// Sentinel kinds for pipeline errors.
var (
	ErrNoInput = errors.New("no image or text supplied")
	ErrNoOCR   = errors.New("no OCR engine configured")
)

// OCR is the external text-recognition collaborator. The pipeline blocks
// until text is available; nothing beyond raw text is consumed.
type OCR interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Input is one verification request after boundary validation.
type Input struct {
	Image     []byte
	Text      string // pre-extracted text, used when Image is empty
	Applicant model.Applicant
	Policy    *eligibility.Policy // nil falls back to the verifier default
}

// Verifier wires the pipeline stages together.
type Verifier struct {
	ocr           OCR
	defaultPolicy eligibility.Policy
	now           func() time.Time
}

// Option applies a configuration option to the Verifier.
type Option func(*Verifier)

// WithOCR sets the text-recognition collaborator for image inputs.
func WithOCR(ocr OCR) Option {
	return func(v *Verifier) {
		if ocr != nil {
			v.ocr = ocr
		}
	}
}

// WithDefaultPolicy sets the policy used when a request carries none.
func WithDefaultPolicy(p eligibility.Policy) Option {
	return func(v *Verifier) {
		v.defaultPolicy = p
	}
}

// WithClock overrides the reference-time source.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// New constructs a Verifier with the built-in default policy.
func New(opts ...Option) *Verifier {
	v := &Verifier{
		defaultPolicy: eligibility.DefaultPolicy(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify runs the pipeline. It returns an error only for collaborator or
// caller faults (OCR failure, nothing to process); a malformed document is
// an ordinary report full of failing checks.
func (v *Verifier) Verify(ctx context.Context, in Input) (types.Report, error) {
	text := in.Text
	if len(in.Image) > 0 {
		if v.ocr == nil {
			return types.Report{}, ErrNoOCR
		}
		recognized, err := v.ocr.Recognize(ctx, in.Image)
		if err != nil {
			return types.Report{}, fmt.Errorf("ocr failed: %w", err)
		}
		text = recognized
	}
	if text == "" {
		return types.Report{}, ErrNoInput
	}

	rec := mrz.ParseText(text)
	var recPtr *mrz.Record
	// A hard line-count failure decoded nothing; the extractor then works
	// from text alone.
	if rec.Layout != mrz.LayoutUnknown {
		recPtr = &rec
	}
	doc := extract.Document(text, recPtr)

	policy := v.defaultPolicy
	if in.Policy != nil {
		policy = *in.Policy
	}

	now := v.now()
	validation := validate.RunAt(&doc, now)
	elig := eligibility.RunAt(&doc, &in.Applicant, &policy, now)

	report := types.Report{
		Document:          doc,
		MRZValid:          rec.Valid,
		MRZErrors:         rec.Errors,
		ValidationChecks:  validation,
		EligibilityChecks: elig,
		DocumentValid:     allPassed(validation),
		Eligible:          allPassed(elig),
		OverallConfidence: overallConfidence(&doc),
	}
	report.Summary = summarize(&report)
	return report, nil
}

func allPassed(results []types.CheckResult) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// overallConfidence is the mean of the ten mandatory field scores.
func overallConfidence(doc *model.ExtractedDocument) int {
	fields := doc.Fields()
	sum := 0
	for _, f := range fields {
		sum += f.Confidence
	}
	return sum / len(fields)
}

func summarize(r *types.Report) string {
	switch {
	case r.DocumentValid && r.Eligible:
		return "document valid and applicant eligible"
	case r.DocumentValid:
		return "document valid but applicant not eligible: " + firstFailure(r.EligibilityChecks)
	case r.Eligible:
		return "document invalid: " + firstFailure(r.ValidationChecks)
	default:
		return "document invalid and applicant not eligible: " + firstFailure(r.ValidationChecks)
	}
}

func firstFailure(results []types.CheckResult) string {
	for _, r := range results {
		if !r.Passed {
			return r.Message
		}
	}
	return ""
}
