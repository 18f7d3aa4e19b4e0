// Package mrz decodes the machine-readable zone printed on travel
// documents. It recognizes the TD3 (2 lines of 44) and TD1 (3 lines of 30)
// layouts, slices fields from their fixed offsets and verifies the ICAO
// check digits. Structural and checksum problems accumulate in the record's
// error list instead of aborting; only an unusable line count produces a
// record with no decoded fields.
package mrz

import (
	"fmt"
	"strings"
)

// Layout identifies the physical MRZ format.
type Layout string

const (
	// LayoutTD3 is the passport/visa booklet format, 2 lines of 44.
	LayoutTD3 Layout = "TD3"
	// LayoutTD1 is the credit-card sized ID format, 3 lines of 30.
	LayoutTD1 Layout = "TD1"
	// LayoutUnknown marks records that could not be classified.
	LayoutUnknown Layout = ""
)

// Line lengths per layout.
const (
	td3LineLen = 44
	td1LineLen = 30
)

// Record holds the best-effort decoded MRZ fields. A record with
// Valid == false still carries whatever was decoded; callers treat it as a
// lower-confidence source rather than discarding it.
type Record struct {
	Layout         Layout
	DocumentType   string
	IssuingCountry string
	DocumentNumber string
	Surname        string
	GivenNames     string
	Nationality    string
	DateOfBirth    string // ISO YYYY-MM-DD, empty when undecodable
	Sex            string
	ExpiryDate     string // ISO YYYY-MM-DD, empty when undecodable
	PersonalNumber string
	Lines          []string
	Valid          bool
	Errors         []string
}

// ErrInvalidLineCount is the hard-failure message for an unparseable
// candidate count.
const ErrInvalidLineCount = "Invalid MRZ format - expected 2 or 3 lines"

// DetectLines scans raw OCR text for MRZ candidates: lines that, after
// stripping internal whitespace and upper-casing, are exactly 44 or 30
// characters of [A-Z0-9<]. Source order is preserved.
func DetectLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		candidate := normalizeLine(line)
		if len(candidate) != td3LineLen && len(candidate) != td1LineLen {
			continue
		}
		if !isMRZCharset(candidate) {
			continue
		}
		out = append(out, candidate)
	}
	return out
}

// ParseText is the codec entry point: detect candidate lines in raw text
// and parse them.
func ParseText(text string) Record {
	return Parse(DetectLines(text))
}

// Parse dispatches on line count alone: 2 lines mean TD3, 3 mean TD1, any
// other count is a hard failure with no decoded fields.
func Parse(lines []string) Record {
	switch len(lines) {
	case 2:
		return parseTD3(lines)
	case 3:
		return parseTD1(lines)
	default:
		return Record{Layout: LayoutUnknown, Errors: []string{ErrInvalidLineCount}}
	}
}

// TD3 line 1: type [0,2), country [2,5), names [5,44).
// TD3 line 2: number [0,9)+cd@9, nationality [10,13), birth [13,19)+cd@19,
// sex @20, expiry [21,27)+cd@27, personal [28,42)+cd@42, composite cd@43
// over number+cd, birth+cd and expiry-through-personal+cd.
func parseTD3(lines []string) Record {
	r := Record{Layout: LayoutTD3, Lines: lines}

	l1, l2 := lines[0], lines[1]
	if len(l1) != td3LineLen {
		r.Errors = append(r.Errors, fmt.Sprintf("TD3 line 1 has %d characters, expected %d", len(l1), td3LineLen))
	}
	if len(l2) != td3LineLen {
		r.Errors = append(r.Errors, fmt.Sprintf("TD3 line 2 has %d characters, expected %d", len(l2), td3LineLen))
	}

	r.DocumentType = stripFiller(slice(l1, 0, 2))
	r.IssuingCountry = stripFiller(slice(l1, 2, 5))
	r.Surname, r.GivenNames = splitName(slice(l1, 5, td3LineLen))

	r.DocumentNumber = stripFiller(slice(l2, 0, 9))
	r.Nationality = stripFiller(slice(l2, 10, 13))
	r.DateOfBirth = decodeDate(slice(l2, 13, 19))
	r.Sex = stripFiller(slice(l2, 20, 21))
	r.ExpiryDate = decodeDate(slice(l2, 21, 27))
	r.PersonalNumber = stripFiller(slice(l2, 28, 42))

	r.check("document number", slice(l2, 0, 9), at(l2, 9))
	r.check("date of birth", slice(l2, 13, 19), at(l2, 19))
	r.check("expiry date", slice(l2, 21, 27), at(l2, 27))
	r.check("personal number", slice(l2, 28, 42), at(l2, 42))

	composite := slice(l2, 0, 10) + slice(l2, 13, 20) + slice(l2, 21, 43)
	r.check("composite", composite, at(l2, 43))

	r.Valid = len(r.Errors) == 0
	return r
}

// TD1 line 1: type [0,2), country [2,5), number [5,14)+cd@14.
// TD1 line 2: birth [0,6)+cd@6, sex @7, expiry [8,14)+cd@14,
// nationality [15,18). Line 3 carries the name.
func parseTD1(lines []string) Record {
	r := Record{Layout: LayoutTD1, Lines: lines}

	for i, line := range lines {
		if len(line) != td1LineLen {
			r.Errors = append(r.Errors, fmt.Sprintf("TD1 line %d has %d characters, expected %d", i+1, len(line), td1LineLen))
		}
	}
	l1, l2, l3 := lines[0], lines[1], lines[2]

	r.DocumentType = stripFiller(slice(l1, 0, 2))
	r.IssuingCountry = stripFiller(slice(l1, 2, 5))
	r.DocumentNumber = stripFiller(slice(l1, 5, 14))

	r.DateOfBirth = decodeDate(slice(l2, 0, 6))
	r.Sex = stripFiller(slice(l2, 7, 8))
	r.ExpiryDate = decodeDate(slice(l2, 8, 14))
	r.Nationality = stripFiller(slice(l2, 15, 18))

	r.Surname, r.GivenNames = splitName(l3)

	r.check("document number", slice(l1, 5, 14), at(l1, 14))
	r.check("date of birth", slice(l2, 0, 6), at(l2, 6))
	r.check("expiry date", slice(l2, 8, 14), at(l2, 14))

	r.Valid = len(r.Errors) == 0
	return r
}

// check verifies one field's check digit and records a named error on
// mismatch. A missing digit (filler or truncated line) is not a failure.
func (r *Record) check(name, data string, digit byte) {
	if digit == 0 { // line too short to carry the digit
		return
	}
	if !verifyCheckDigit(data, digit) {
		r.Errors = append(r.Errors, name+" checksum failed")
	}
}

// decodeDate expands a YYMMDD field to ISO YYYY-MM-DD. Calendar sanity is
// the document validator's job, not the codec's; non-numeric input decodes
// to the empty "unknown" value.
func decodeDate(s string) string {
	if len(s) != 6 {
		return ""
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return ""
		}
	}
	yy := int(s[0]-'0')*10 + int(s[1]-'0')
	return fmt.Sprintf("%04d-%s-%s", ExpandYear(yy), s[2:4], s[4:6])
}

// splitName separates surname from given names on the first "<<" and turns
// remaining fillers into single spaces.
func splitName(field string) (surname, given string) {
	surname = field
	if i := strings.Index(field, "<<"); i >= 0 {
		surname, given = field[:i], field[i+2:]
	}
	return fillerToSpace(surname), fillerToSpace(given)
}

func fillerToSpace(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "<", " ")), " ")
}

func stripFiller(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "<", ""))
}

// slice returns line[from:to], tolerating short lines.
func slice(line string, from, to int) string {
	if from >= len(line) {
		return ""
	}
	if to > len(line) {
		to = len(line)
	}
	return line[from:to]
}

// at returns the byte at position i, or 0 when the line is too short.
func at(line string, i int) byte {
	if i >= len(line) {
		return 0
	}
	return line[i]
}

func normalizeLine(line string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(line) {
		if r == ' ' || r == '\t' || r == '\r' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isMRZCharset(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '<' {
			continue
		}
		return false
	}
	return true
}
