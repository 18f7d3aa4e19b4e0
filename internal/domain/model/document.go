// Package model contains domain models passed between layers.
package model

// ConfidenceField pairs an extracted value with a 0-100 provenance score.
// The score orders sources (checksum-verified MRZ > unverified MRZ >
// heuristic); it is not a calibrated probability.
type ConfidenceField struct {
	Value      string `json:"value"`
	Confidence int    `json:"confidence"`
}

// ExtractedDocument is the merged field set produced by the extractor.
// Every mandatory field is always present; an empty Value means "unknown",
// never absence, and downstream checks must treat it as unverifiable.
type ExtractedDocument struct {
	DocumentType   ConfidenceField `json:"document_type"`
	DocumentNumber ConfidenceField `json:"document_number"`
	Surname        ConfidenceField `json:"surname"`
	GivenNames     ConfidenceField `json:"given_names"`
	Nationality    ConfidenceField `json:"nationality"`
	DateOfBirth    ConfidenceField `json:"date_of_birth"`
	Sex            ConfidenceField `json:"sex"`
	IssuingCountry ConfidenceField `json:"issuing_country"`
	IssueDate      ConfidenceField `json:"issue_date"`
	ExpiryDate     ConfidenceField `json:"expiry_date"`

	// Optional extras.
	PlaceOfBirth ConfidenceField `json:"place_of_birth,omitempty"`
	MRZLine1     string          `json:"mrz_line1,omitempty"`
	MRZLine2     string          `json:"mrz_line2,omitempty"`
	MRZLine3     string          `json:"mrz_line3,omitempty"`
}

// Fields returns the ten mandatory fields in display order.
func (d *ExtractedDocument) Fields() []ConfidenceField {
	return []ConfidenceField{
		d.DocumentType,
		d.DocumentNumber,
		d.Surname,
		d.GivenNames,
		d.Nationality,
		d.DateOfBirth,
		d.Sex,
		d.IssuingCountry,
		d.IssueDate,
		d.ExpiryDate,
	}
}

// Applicant carries the identity an applicant claims, matched against the
// extracted document by the eligibility battery.
type Applicant struct {
	FullName       string `json:"full_name"`
	DateOfBirth    string `json:"date_of_birth"`
	PassportNumber string `json:"passport_number"`
	Nationality    string `json:"nationality"`
	VisaType       string `json:"visa_type"`
}
