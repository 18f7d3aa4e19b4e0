// Package validate runs the fixed battery of document-validity checks over
// one extracted field set. Checks are self-contained: each consumes only
// the document, never another check's outcome, and any internal failure
// (unparseable date, missing value) becomes a failed verdict with a
// message instead of an error.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/okian/veridoc/internal/domain/model"
	"github.com/okian/veridoc/internal/domain/types"
)

const (
	isoDateLayout = "2006-01-02"
	maxHumanAge   = 150
)

var (
	reISODate   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reName      = regexp.MustCompile(`^[A-Za-z\s\-']+$`)
	reDocNumber = regexp.MustCompile(`^[A-Z0-9]{6,12}$`)
	reCountry   = regexp.MustCompile(`^[A-Z]{3}$`)
)

// check is one named validation step. The order of the battery is fixed
// for display; every step is independent.
type check struct {
	name string
	run  func(doc *model.ExtractedDocument, now time.Time) (bool, string)
}

var battery = []check{
	{"Document Expiry", checkExpiry},
	{"Date Format Validation", checkDateFormats},
	{"Age Consistency", checkAge},
	{"Name Format", checkNames},
	{"Document Number Format", checkDocumentNumber},
	{"Nationality Format", checkNationality},
	{"Date Logic", checkDateLogic},
}

// Run executes the battery against the current date.
func Run(doc *model.ExtractedDocument) []types.CheckResult {
	return RunAt(doc, time.Now())
}

// RunAt executes the battery against a fixed reference date. Pure function
// of its inputs; used directly by tests.
func RunAt(doc *model.ExtractedDocument, now time.Time) []types.CheckResult {
	out := make([]types.CheckResult, 0, len(battery))
	for _, c := range battery {
		passed, msg := c.run(doc, now)
		out = append(out, types.CheckResult{Check: c.name, Passed: passed, Message: msg})
	}
	return out
}

// parseDate is the result-typed date parse every check branches on; no
// check lets a parse failure escape as an error.
func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse(isoDateLayout, s)
	return t, err == nil
}

func checkExpiry(doc *model.ExtractedDocument, now time.Time) (bool, string) {
	expiry, ok := parseDate(doc.ExpiryDate.Value)
	if !ok {
		return false, fmt.Sprintf("expiry date %q has invalid format", doc.ExpiryDate.Value)
	}
	today := truncateToDay(now)
	if expiry.Before(today) {
		return false, fmt.Sprintf("document expired on %s", doc.ExpiryDate.Value)
	}
	return true, fmt.Sprintf("document valid until %s", doc.ExpiryDate.Value)
}

func checkDateFormats(doc *model.ExtractedDocument, _ time.Time) (bool, string) {
	var bad []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"dateOfBirth", doc.DateOfBirth.Value},
		{"issueDate", doc.IssueDate.Value},
		{"expiryDate", doc.ExpiryDate.Value},
	} {
		if !reISODate.MatchString(f.value) {
			bad = append(bad, f.name)
		}
	}
	if len(bad) > 0 {
		return false, "dates not in YYYY-MM-DD format: " + strings.Join(bad, ", ")
	}
	return true, "all dates in YYYY-MM-DD format"
}

func checkAge(doc *model.ExtractedDocument, now time.Time) (bool, string) {
	age, ok := AgeAt(doc.DateOfBirth.Value, now)
	if !ok {
		return false, fmt.Sprintf("cannot compute age from date of birth %q", doc.DateOfBirth.Value)
	}
	if age < 0 {
		return false, "date of birth is in the future"
	}
	if age > maxHumanAge {
		return false, fmt.Sprintf("implausible age %d", age)
	}
	return true, fmt.Sprintf("age %d is plausible", age)
}

func checkNames(doc *model.ExtractedDocument, _ time.Time) (bool, string) {
	surname := doc.Surname.Value
	if surname == "" {
		return false, "surname is empty"
	}
	if !reName.MatchString(surname) {
		return false, fmt.Sprintf("surname %q contains invalid characters", surname)
	}
	if given := doc.GivenNames.Value; given != "" && !reName.MatchString(given) {
		return false, fmt.Sprintf("given names %q contain invalid characters", given)
	}
	return true, "name fields are well-formed"
}

func checkDocumentNumber(doc *model.ExtractedDocument, _ time.Time) (bool, string) {
	if !reDocNumber.MatchString(doc.DocumentNumber.Value) {
		return false, fmt.Sprintf("document number %q must be 6-12 characters of A-Z and 0-9", doc.DocumentNumber.Value)
	}
	return true, "document number is well-formed"
}

func checkNationality(doc *model.ExtractedDocument, _ time.Time) (bool, string) {
	if !reCountry.MatchString(doc.Nationality.Value) {
		return false, fmt.Sprintf("nationality %q is not a 3-letter code", doc.Nationality.Value)
	}
	return true, "nationality is a 3-letter code"
}

func checkDateLogic(doc *model.ExtractedDocument, now time.Time) (bool, string) {
	birth, ok := parseDate(doc.DateOfBirth.Value)
	if !ok {
		return false, fmt.Sprintf("date of birth %q has invalid format", doc.DateOfBirth.Value)
	}
	issue, ok := parseDate(doc.IssueDate.Value)
	if !ok {
		return false, fmt.Sprintf("issue date %q has invalid format", doc.IssueDate.Value)
	}
	expiry, ok := parseDate(doc.ExpiryDate.Value)
	if !ok {
		return false, fmt.Sprintf("expiry date %q has invalid format", doc.ExpiryDate.Value)
	}
	switch {
	case !birth.Before(issue):
		return false, "date of birth is not before issue date"
	case !issue.Before(expiry):
		return false, "issue date is not before expiry date"
	case birth.After(truncateToDay(now)):
		return false, "date of birth is in the future"
	}
	return true, "dates are in chronological order"
}

// AgeAt computes calendar-aware age at the reference date: one year is
// subtracted when the reference month/day precedes the birth month/day.
// Shared with the eligibility battery.
func AgeAt(dateOfBirth string, now time.Time) (int, bool) {
	birth, ok := parseDate(dateOfBirth)
	if !ok {
		return 0, false
	}
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age, true
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
