package testdocs

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/veridoc/internal/domain/mrz"
	"github.com/okian/veridoc/pkg/logger"
)

// Constants for random number generation.
const (
	profileDivisor      = 9
	passportDigitCount  = 7
	td3LineLen          = 44
	td3NameFieldLen     = 39
	td1LineLen          = 30
	personalNumberSlots = 14
)

// Constants for document profile cases.
const (
	caseValidPassport     = 0
	caseExpiredPassport   = 1
	caseCorruptedMRZ      = 2
	caseUnderageApplicant = 3
	caseBlockedNational   = 4
	caseFreeTextDocument  = 5
	caseNameMismatch      = 6
	caseShortValidity     = 7
	caseValidIDCard       = 8
)

var surnames = []string{"ERIKSSON", "MARTINEZ", "OKONKWO", "TANAKA", "KOWALSKI", "DUBOIS", "ALMEIDA", "HANSEN"}

var givenNames = []string{"ANNA MARIA", "LUCAS", "CHIOMA", "YUKI", "PIOTR", "CAMILLE", "RAFAEL", "INGRID"}

var nationalities = []string{"UTO", "SWE", "FRA", "DEU", "NLD", "PRT", "JPN", "POL"}

// randomInt returns a random int in [0, n) using crypto/rand.
func randomInt(n int64) int64 {
	v, _ := rand.Int(rand.Reader, big.NewInt(n))
	return v.Int64()
}

// generateDocuments creates the specified number of documents with unique
// request IDs, spread across the generation profiles.
func generateDocuments(ctx context.Context, config *Config, stats *Stats) ([]Document, error) {
	logger.Get().Info(ctx, "generating documents with unique request IDs", logger.Int("numDocs", config.NumDocs))

	docs := make([]Document, config.NumDocs)

	type docResult struct {
		index int
		doc   Document
		err   error
	}

	resultChan := make(chan docResult, config.NumDocs)

	// Use worker pool for document generation
	workerCount := minInt(config.Workers, config.NumDocs)
	docsPerWorker := config.NumDocs / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * docsPerWorker
		end := start + docsPerWorker
		if worker == workerCount-1 {
			end = config.NumDocs // Last worker gets the remainder
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- docResult{index: i, err: ctx.Err()}
					return
				default:
					resultChan <- docResult{index: i, doc: generateSingleDocument()}
				}
			}
		}(start, end)
	}

	// Collect results
	for i := 0; i < config.NumDocs; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during document generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate document %d: %w", result.index, result.err)
			}
			docs[result.index] = result.doc
		}
	}

	stats.DocsGenerated = len(docs)
	logger.Get().Info(ctx, "generated documents successfully", logger.Int("count", len(docs)))

	return docs, nil
}

// identity is the raw material one document is built from.
type identity struct {
	surname     string
	given       string
	nationality string
	number      string
	birth       time.Time
	expiry      time.Time
	sex         string
}

func randomIdentity() identity {
	now := time.Now().UTC()
	sex := "M"
	if randomInt(2) == 0 {
		sex = "F"
	}
	return identity{
		surname:     surnames[randomInt(int64(len(surnames)))],
		given:       givenNames[randomInt(int64(len(givenNames)))],
		nationality: nationalities[randomInt(int64(len(nationalities)))],
		number:      randomPassportNumber(),
		// Adults between roughly 20 and 60 years old.
		birth:  now.AddDate(-20-int(randomInt(40)), -int(randomInt(12)), -int(randomInt(28))),
		expiry: now.AddDate(1+int(randomInt(8)), int(randomInt(12)), 0),
		sex:    sex,
	}
}

func randomPassportNumber() string {
	const letters = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	var b strings.Builder
	b.WriteByte(letters[randomInt(int64(len(letters)))])
	b.WriteByte(letters[randomInt(int64(len(letters)))])
	for i := 0; i < passportDigitCount; i++ {
		b.WriteByte(byte('0' + randomInt(10)))
	}
	return b.String()
}

// generateSingleDocument creates one document from a random profile.
func generateSingleDocument() Document {
	id := randomIdentity()
	now := time.Now().UTC()

	profile := randomInt(profileDivisor)
	doc := Document{
		RequestID: "doc_" + uuid.New().String(),
		Applicant: Applicant{
			FullName:       id.given + " " + id.surname,
			DateOfBirth:    id.birth.Format("2006-01-02"),
			PassportNumber: id.number,
			Nationality:    id.nationality,
			VisaType:       "tourist",
		},
	}

	switch profile {
	case caseValidPassport:
		// Well-formed passport with a matching applicant - most common
		doc.Profile = "valid"
		doc.Text = buildTD3(id)
	case caseExpiredPassport:
		// Document expired a year ago
		doc.Profile = "expired"
		id.expiry = now.AddDate(-1, 0, 0)
		doc.Text = buildTD3(id)
	case caseCorruptedMRZ:
		// Valid layout with one corrupted check digit
		doc.Profile = "corrupted"
		doc.Text = corruptCheckDigit(buildTD3(id))
	case caseUnderageApplicant:
		// Applicant below the default minimum age
		doc.Profile = "underage"
		id.birth = now.AddDate(-12, 0, 0)
		doc.Applicant.DateOfBirth = id.birth.Format("2006-01-02")
		doc.Text = buildTD3(id)
	case caseBlockedNational:
		// Nationality on the default block list
		doc.Profile = "blocked"
		id.nationality = "PRK"
		doc.Applicant.Nationality = "PRK"
		doc.Text = buildTD3(id)
	case caseFreeTextDocument:
		// No MRZ at all; exercises the heuristic extractor
		doc.Profile = "freetext"
		doc.Text = buildFreeText(id)
	case caseNameMismatch:
		// The claimed name does not match the document
		doc.Profile = "mismatch"
		doc.Applicant.FullName = "TOTALLY DIFFERENT PERSON"
		doc.Text = buildTD3(id)
	case caseShortValidity:
		// Expires inside the default minimum-validity window
		doc.Profile = "short_validity"
		id.expiry = now.AddDate(0, 2, 0)
		doc.Text = buildTD3(id)
	case caseValidIDCard:
		// Three-line identity card instead of a passport
		doc.Profile = "idcard"
		doc.Text = buildTD1(id)
	default:
		doc.Profile = "valid"
		doc.Text = buildTD3(id)
	}

	return doc
}

// buildTD3 renders a two-line passport MRZ with correct check digits.
func buildTD3(id identity) string {
	name := id.surname + "<<" + strings.ReplaceAll(id.given, " ", "<")
	line1 := "P<" + id.nationality + padField(name, td3NameFieldLen)

	number := padField(id.number, 9)
	birth := id.birth.Format("060102")
	expiry := id.expiry.Format("060102")
	personal := strings.Repeat("<", personalNumberSlots)

	var b strings.Builder
	b.WriteString(number)
	b.WriteString(digit(number))
	b.WriteString(id.nationality)
	b.WriteString(birth)
	b.WriteString(digit(birth))
	b.WriteString(id.sex)
	b.WriteString(expiry)
	b.WriteString(digit(expiry))
	b.WriteString(personal)
	b.WriteString(digit(personal))
	line2 := b.String()

	composite := line2[0:10] + line2[13:20] + line2[21:43]
	line2 += digit(composite)

	return line1 + "\n" + line2
}

// buildTD1 renders a three-line identity-card MRZ with correct check digits.
func buildTD1(id identity) string {
	number := padField(id.number, 9)
	line1 := "I<" + id.nationality + number + digit(number)
	line1 = padField(line1, td1LineLen)

	birth := id.birth.Format("060102")
	expiry := id.expiry.Format("060102")
	line2 := birth + digit(birth) + id.sex + expiry + digit(expiry) + id.nationality
	line2 = padField(line2, td1LineLen)

	name := id.surname + "<<" + strings.ReplaceAll(id.given, " ", "<")
	line3 := padField(name, td1LineLen)

	return line1 + "\n" + line2 + "\n" + line3
}

// buildFreeText renders a document body with no machine readable zone.
func buildFreeText(id identity) string {
	return strings.Join([]string{
		"PASSPORT",
		"Surname: " + titleCase(id.surname),
		"Given names: " + titleCase(id.given),
		"Passport No: " + id.number,
		"Nationality: " + id.nationality,
		"Date of birth: " + id.birth.Format("02 Jan 2006"),
		"Date of expiry: " + id.expiry.Format("02 Jan 2006"),
	}, "\n")
}

// corruptCheckDigit flips the document-number check digit on line 2.
func corruptCheckDigit(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 || len(lines[1]) < 10 {
		return text
	}
	l2 := []byte(lines[1])
	l2[9] = '0' + byte((int(l2[9]-'0')+1)%10)
	lines[1] = string(l2)
	return strings.Join(lines, "\n")
}

// titleCase lowercases a shouting MRZ name into document prose.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func digit(s string) string {
	return strconv.Itoa(mrz.CheckDigit(s))
}

// padField right-pads (or truncates) a field with MRZ filler.
func padField(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat("<", n-len(s))
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
