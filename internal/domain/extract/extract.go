// Package extract fills an ExtractedDocument from raw OCR text, preferring
// MRZ-decoded values and falling back to keyword and pattern heuristics for
// anything the MRZ did not supply. Confidence is assigned purely by
// provenance: checksum-verified MRZ, MRZ present but invalid, or heuristic.
package extract

import (
	"regexp"
	"strings"

	"github.com/okian/veridoc/internal/domain/model"
	"github.com/okian/veridoc/internal/domain/mrz"
)

// Provenance confidence scores. Coarse on purpose: the scores order
// sources, they do not measure OCR quality.
const (
	confMRZVerified = 95
	confMRZInvalid  = 60

	confHeurDocType     = 80
	confHeurDocNumber   = 75
	confHeurName        = 75
	confHeurNationality = 80
	confHeurBirthDate   = 70
	confHeurSex         = 85
	confHeurExpiryDate  = 70
	confIssueDate       = 70 // never carried by the 2-line MRZ

	confUnknown = 0
)

var (
	reDocNumber = regexp.MustCompile(`\b[A-Z]{1,2}\d{7,9}\b`)
	reCountry   = regexp.MustCompile(`\b[A-Z]{3}\b`)
	reSexToken  = regexp.MustCompile(`\b(M|F|MALE|FEMALE)\b`)
	reDMYDate   = regexp.MustCompile(`\b(\d{1,2})[./-](\d{1,2})[./-](\d{2,4})\b`)
	reISODate   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
)

// Keyword sets for the date heuristics, matched case-insensitively per line.
var (
	birthKeywords  = []string{"birth", "born", "dob"}
	issueKeywords  = []string{"issue", "issued"}
	expiryKeywords = []string{"expiry", "expiration", "expires", "valid until"}
)

// Document merges the MRZ record (possibly nil or invalid) with text
// heuristics into the full field set. Pure function; the same inputs always
// produce the same document.
func Document(text string, rec *mrz.Record) model.ExtractedDocument {
	mrzConf := confMRZInvalid
	if rec != nil && rec.Valid {
		mrzConf = confMRZVerified
	}

	pick := func(mrzValue string, mrzOK bool, heuristic func() (string, int)) model.ConfidenceField {
		if mrzOK && mrzValue != "" {
			return model.ConfidenceField{Value: mrzValue, Confidence: mrzConf}
		}
		v, c := heuristic()
		return model.ConfidenceField{Value: v, Confidence: c}
	}

	hasMRZ := rec != nil
	var doc model.ExtractedDocument
	doc.DocumentType = pick(mrzField(rec, func(r *mrz.Record) string { return r.DocumentType }), hasMRZ, func() (string, int) {
		return documentType(text), confHeurDocType
	})
	doc.DocumentNumber = pick(mrzField(rec, func(r *mrz.Record) string { return r.DocumentNumber }), hasMRZ, func() (string, int) {
		return reDocNumber.FindString(strings.ToUpper(text)), confHeurDocNumber
	})
	doc.Surname = pick(mrzField(rec, func(r *mrz.Record) string { return r.Surname }), hasMRZ, func() (string, int) {
		return labeledValue(text, "surname", "last name", "family name"), confHeurName
	})
	doc.GivenNames = pick(mrzField(rec, func(r *mrz.Record) string { return r.GivenNames }), hasMRZ, func() (string, int) {
		return labeledValue(text, "given name", "first name"), confHeurName
	})
	doc.Nationality = pick(mrzField(rec, func(r *mrz.Record) string { return r.Nationality }), hasMRZ, func() (string, int) {
		return reCountry.FindString(text), confHeurNationality
	})
	doc.DateOfBirth = pick(mrzField(rec, func(r *mrz.Record) string { return r.DateOfBirth }), hasMRZ, func() (string, int) {
		return dateNear(text, birthKeywords), confHeurBirthDate
	})
	doc.Sex = pick(mrzField(rec, func(r *mrz.Record) string { return r.Sex }), hasMRZ, func() (string, int) {
		return sex(text), confHeurSex
	})
	doc.IssuingCountry = pick(mrzField(rec, func(r *mrz.Record) string { return r.IssuingCountry }), hasMRZ, func() (string, int) {
		return reCountry.FindString(text), confHeurNationality
	})
	doc.IssueDate = model.ConfidenceField{Value: dateNear(text, issueKeywords), Confidence: confIssueDate}
	doc.ExpiryDate = pick(mrzField(rec, func(r *mrz.Record) string { return r.ExpiryDate }), hasMRZ, func() (string, int) {
		return dateNear(text, expiryKeywords), confHeurExpiryDate
	})

	// A field the heuristics could not determine stays empty and scores
	// zero: an explicit unknown, never a fabricated value.
	for _, f := range []*model.ConfidenceField{
		&doc.DocumentNumber, &doc.Surname, &doc.GivenNames,
		&doc.Nationality, &doc.DateOfBirth, &doc.IssuingCountry,
		&doc.IssueDate, &doc.ExpiryDate,
	} {
		if f.Value == "" {
			f.Confidence = confUnknown
		}
	}

	if rec != nil {
		echoLines(&doc, rec.Lines)
	}
	return doc
}

func mrzField(rec *mrz.Record, get func(*mrz.Record) string) string {
	if rec == nil {
		return ""
	}
	return get(rec)
}

func echoLines(doc *model.ExtractedDocument, lines []string) {
	if len(lines) > 0 {
		doc.MRZLine1 = lines[0]
	}
	if len(lines) > 1 {
		doc.MRZLine2 = lines[1]
	}
	if len(lines) > 2 {
		doc.MRZLine3 = lines[2]
	}
}

// documentType scans for type keywords and defaults to passport.
func documentType(text string) string {
	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(upper, "PASSPORT"):
		return "P"
	case strings.Contains(upper, "VISA"):
		return "V"
	case strings.Contains(upper, "IDENTITY"), strings.Contains(upper, "ID CARD"):
		return "I"
	case strings.Contains(upper, "DRIVING"), strings.Contains(upper, "LICENSE"), strings.Contains(upper, "LICENCE"):
		return "D"
	default:
		return "P"
	}
}

// labeledValue scans lines for any of the labels and returns the
// upper-cased text after the first colon.
func labeledValue(text string, labels ...string) string {
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		for _, label := range labels {
			if !strings.Contains(lower, label) {
				continue
			}
			if i := strings.Index(line, ":"); i >= 0 {
				return strings.ToUpper(strings.TrimSpace(line[i+1:]))
			}
		}
	}
	return ""
}

// sex infers M/F from isolated tokens, preferring single-letter evidence,
// and defaults to M when the text is silent.
func sex(text string) string {
	letter, word := "", ""
	for _, m := range reSexToken.FindAllString(strings.ToUpper(text), -1) {
		switch m {
		case "M", "F":
			if letter == "" {
				letter = m
			}
		case "MALE":
			if word == "" {
				word = "M"
			}
		case "FEMALE":
			if word == "" {
				word = "F"
			}
		}
	}
	if letter != "" {
		return letter
	}
	if word != "" {
		return word
	}
	return "M"
}

// dateNear finds a date on a line mentioning one of the keywords:
// D/M/Y-separated forms first, then ISO. When no keyworded line matches it
// falls back to the first ISO date anywhere; when nothing matches at all
// the result is the empty unknown.
func dateNear(text string, keywords []string) string {
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		matched := false
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		if d := normalizeDMY(line); d != "" {
			return d
		}
		if m := reISODate.FindString(line); m != "" {
			return m
		}
	}
	return reISODate.FindString(text)
}

// normalizeDMY turns a separated day/month/year match into ISO form,
// zero-padding and widening two-digit years with the MRZ rule.
func normalizeDMY(line string) string {
	m := reDMYDate.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	day, month, year := m[1], m[2], m[3]
	if len(day) == 1 {
		day = "0" + day
	}
	if len(month) == 1 {
		month = "0" + month
	}
	if len(year) == 2 {
		yy := int(year[0]-'0')*10 + int(year[1]-'0')
		year = itoa4(mrz.ExpandYear(yy))
	}
	if len(year) != 4 {
		return ""
	}
	return year + "-" + month + "-" + day
}

func itoa4(n int) string {
	digits := [4]byte{}
	for i := 3; i >= 0; i-- {
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits[:])
}
