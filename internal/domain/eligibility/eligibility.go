// Package eligibility cross-references an extracted document, the
// applicant's claimed identity and a policy, producing the fixed battery of
// nine pass/fail verdicts. Like the validity battery, checks are
// independent, never mutate their inputs and convert internal failures
// into failed verdicts.
package eligibility

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/veridoc/internal/domain/model"
	"github.com/okian/veridoc/internal/domain/types"
	"github.com/okian/veridoc/internal/domain/validate"
)

const (
	isoDateLayout = "2006-01-02"

	// Validity remaining is measured in fixed 30-day months, not calendar
	// months.
	approxMonth = 30 * 24 * time.Hour
)

type input struct {
	doc       *model.ExtractedDocument
	applicant *model.Applicant
	policy    *Policy
	now       time.Time
}

type check struct {
	name string
	run  func(in input) (bool, string)
}

var battery = []check{
	{"Name Match", checkNameMatch},
	{"Date of Birth Match", checkBirthDateMatch},
	{"Passport Number Match", checkPassportMatch},
	{"Nationality Match", checkNationalityMatch},
	{"Age Requirement", checkAgeRequirement},
	{"Nationality Eligibility", checkNationalityEligibility},
	{"Document Type", checkDocumentType},
	{"Validity Period", checkValidityPeriod},
	{"Visa Type Requirements", checkVisaTypeRequirements},
}

// Run executes the battery against the current date.
func Run(doc *model.ExtractedDocument, applicant *model.Applicant, policy *Policy) []types.CheckResult {
	return RunAt(doc, applicant, policy, time.Now())
}

// RunAt executes the battery against a fixed reference date.
func RunAt(doc *model.ExtractedDocument, applicant *model.Applicant, policy *Policy, now time.Time) []types.CheckResult {
	in := input{doc: doc, applicant: applicant, policy: policy, now: now}
	out := make([]types.CheckResult, 0, len(battery))
	for _, c := range battery {
		passed, msg := c.run(in)
		out = append(out, types.CheckResult{Check: c.name, Passed: passed, Message: msg})
	}
	return out
}

// normalizeName folds case and collapses runs of whitespace. Equality is
// exact after normalization; there is no fuzzy matching.
func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func checkNameMatch(in input) (bool, string) {
	extracted := strings.TrimSpace(in.doc.GivenNames.Value + " " + in.doc.Surname.Value)
	if normalizeName(extracted) == normalizeName(in.applicant.FullName) {
		return true, fmt.Sprintf("document name %q matches claimed name", extracted)
	}
	return false, fmt.Sprintf("document name %q does not match claimed name %q", extracted, in.applicant.FullName)
}

func checkBirthDateMatch(in input) (bool, string) {
	if in.doc.DateOfBirth.Value == in.applicant.DateOfBirth {
		return true, "date of birth matches claim"
	}
	return false, fmt.Sprintf("document date of birth %q does not match claimed %q",
		in.doc.DateOfBirth.Value, in.applicant.DateOfBirth)
}

func checkPassportMatch(in input) (bool, string) {
	if in.doc.DocumentNumber.Value == in.applicant.PassportNumber {
		return true, "passport number matches claim"
	}
	return false, fmt.Sprintf("document number %q does not match claimed %q",
		in.doc.DocumentNumber.Value, in.applicant.PassportNumber)
}

func checkNationalityMatch(in input) (bool, string) {
	if in.doc.Nationality.Value == in.applicant.Nationality {
		return true, "nationality matches claim"
	}
	return false, fmt.Sprintf("document nationality %q does not match claimed %q",
		in.doc.Nationality.Value, in.applicant.Nationality)
}

// checkAgeRequirement applies the visa-type minimum when configured, the
// policy minimum otherwise, and the policy maximum always.
func checkAgeRequirement(in input) (bool, string) {
	age, ok := validate.AgeAt(in.doc.DateOfBirth.Value, in.now)
	if !ok {
		return false, fmt.Sprintf("cannot compute age from date of birth %q", in.doc.DateOfBirth.Value)
	}
	minAge := in.policy.MinAge
	if req, ok := in.policy.VisaTypeRequirements[in.applicant.VisaType]; ok && req.MinAge != nil {
		minAge = *req.MinAge
	}
	if age < minAge {
		return false, fmt.Sprintf("age %d is below the minimum %d", age, minAge)
	}
	if age > in.policy.MaxAge {
		return false, fmt.Sprintf("age %d exceeds the maximum %d", age, in.policy.MaxAge)
	}
	return true, fmt.Sprintf("age %d satisfies the requirement", age)
}

func checkNationalityEligibility(in input) (bool, string) {
	nat := in.doc.Nationality.Value
	if contains(in.policy.BlockedNationalities, nat) {
		return false, fmt.Sprintf("nationality %q is blocked", nat)
	}
	if len(in.policy.AllowedNationalities) > 0 && !contains(in.policy.AllowedNationalities, nat) {
		return false, fmt.Sprintf("nationality %q is not in the allowed list", nat)
	}
	return true, fmt.Sprintf("nationality %q is eligible", nat)
}

func checkDocumentType(in input) (bool, string) {
	required := in.policy.RequiredDocumentTypes
	if len(required) == 0 || contains(required, in.doc.DocumentType.Value) {
		return true, fmt.Sprintf("document type %q is acceptable", in.doc.DocumentType.Value)
	}
	return false, fmt.Sprintf("document type %q is not among required types %v",
		in.doc.DocumentType.Value, required)
}

func checkValidityPeriod(in input) (bool, string) {
	expiry, err := time.Parse(isoDateLayout, in.doc.ExpiryDate.Value)
	if err != nil {
		return false, fmt.Sprintf("expiry date %q has invalid format", in.doc.ExpiryDate.Value)
	}
	months := int(expiry.Sub(in.now) / approxMonth)
	if months < in.policy.MinValidityMonths {
		return false, fmt.Sprintf("%d months of validity remain, %d required",
			months, in.policy.MinValidityMonths)
	}
	return true, fmt.Sprintf("%d months of validity remain", months)
}

// checkVisaTypeRequirements passes whenever no entry is configured for the
// intended visa type.
func checkVisaTypeRequirements(in input) (bool, string) {
	req, ok := in.policy.VisaTypeRequirements[in.applicant.VisaType]
	if !ok {
		return true, fmt.Sprintf("no extra requirements for visa type %q", in.applicant.VisaType)
	}
	if len(req.AllowedNationalities) > 0 && !contains(req.AllowedNationalities, in.doc.Nationality.Value) {
		return false, fmt.Sprintf("nationality %q is not eligible for visa type %q",
			in.doc.Nationality.Value, in.applicant.VisaType)
	}
	return true, fmt.Sprintf("visa type %q requirements satisfied", in.applicant.VisaType)
}
