package eligibility_test

import (
	"testing"
	"time"

	"github.com/okian/veridoc/internal/domain/eligibility"
	"github.com/okian/veridoc/internal/domain/model"
	"github.com/okian/veridoc/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

var refDate = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func doc() model.ExtractedDocument {
	f := func(v string) model.ConfidenceField {
		return model.ConfidenceField{Value: v, Confidence: 95}
	}
	return model.ExtractedDocument{
		DocumentType:   f("P"),
		DocumentNumber: f("L898902C3"),
		Surname:        f("SMITH"),
		GivenNames:     f("JOHN"),
		Nationality:    f("UTO"),
		DateOfBirth:    f("1990-05-15"),
		Sex:            f("M"),
		IssuingCountry: f("UTO"),
		IssueDate:      f("2020-04-15"),
		ExpiryDate:     f("2030-04-15"),
	}
}

func applicant() model.Applicant {
	return model.Applicant{
		FullName:       "John Smith",
		DateOfBirth:    "1990-05-15",
		PassportNumber: "L898902C3",
		Nationality:    "UTO",
		VisaType:       "tourist",
	}
}

func result(results []types.CheckResult, name string) types.CheckResult {
	for _, r := range results {
		if r.Check == name {
			return r
		}
	}
	return types.CheckResult{}
}

func runOne(d model.ExtractedDocument, a model.Applicant, p eligibility.Policy, name string) types.CheckResult {
	return result(eligibility.RunAt(&d, &a, &p, refDate), name)
}

func TestBatteryOrder(t *testing.T) {
	Convey("Given any inputs", t, func() {
		d, a, p := doc(), applicant(), eligibility.DefaultPolicy()
		results := eligibility.RunAt(&d, &a, &p, refDate)

		Convey("The nine checks run in their fixed display order", func() {
			names := make([]string, len(results))
			for i, r := range results {
				names[i] = r.Check
			}
			So(names, ShouldResemble, []string{
				"Name Match",
				"Date of Birth Match",
				"Passport Number Match",
				"Nationality Match",
				"Age Requirement",
				"Nationality Eligibility",
				"Document Type",
				"Validity Period",
				"Visa Type Requirements",
			})
		})

		Convey("A consistent applicant passes all of them", func() {
			for _, r := range results {
				So(r.Passed, ShouldBeTrue)
			}
		})
	})
}

func TestIdentityMatches(t *testing.T) {
	Convey("Given claimed identity fields", t, func() {
		Convey("Name matching ignores case and surrounding whitespace only", func() {
			r := runOne(doc(), applicant(), eligibility.DefaultPolicy(), "Name Match")
			So(r.Passed, ShouldBeTrue)

			a := applicant()
			a.FullName = "  jOhN   sMiTh "
			r = runOne(doc(), a, eligibility.DefaultPolicy(), "Name Match")
			So(r.Passed, ShouldBeTrue)

			a.FullName = "Jane Smith"
			r = runOne(doc(), a, eligibility.DefaultPolicy(), "Name Match")
			So(r.Passed, ShouldBeFalse)
			So(r.Message, ShouldContainSubstring, `"JOHN SMITH"`)
			So(r.Message, ShouldContainSubstring, `"Jane Smith"`)
		})

		Convey("Birth date, passport number and nationality are exact string matches", func() {
			a := applicant()
			a.DateOfBirth = "1990-05-16"
			So(runOne(doc(), a, eligibility.DefaultPolicy(), "Date of Birth Match").Passed, ShouldBeFalse)

			a = applicant()
			a.PassportNumber = "X0000000"
			So(runOne(doc(), a, eligibility.DefaultPolicy(), "Passport Number Match").Passed, ShouldBeFalse)

			a = applicant()
			a.Nationality = "GBR"
			So(runOne(doc(), a, eligibility.DefaultPolicy(), "Nationality Match").Passed, ShouldBeFalse)
		})
	})
}

func TestAgeRequirement(t *testing.T) {
	Convey("Given age bounds", t, func() {
		Convey("Below the policy minimum fails", func() {
			d := doc()
			d.DateOfBirth.Value = "2010-01-01"
			r := runOne(d, applicant(), eligibility.DefaultPolicy(), "Age Requirement")
			So(r.Passed, ShouldBeFalse)
			So(r.Message, ShouldContainSubstring, "below the minimum")
		})

		Convey("A visa-type minimum overrides the policy minimum", func() {
			p := eligibility.DefaultPolicy()
			minAge := 30
			p.VisaTypeRequirements["work"] = eligibility.VisaRequirement{MinAge: &minAge}
			a := applicant()
			a.VisaType = "work"
			r := runOne(doc(), a, p, "Age Requirement") // age 35 at refDate
			So(r.Passed, ShouldBeTrue)

			d := doc()
			d.DateOfBirth.Value = "2000-01-01" // age 25
			r = runOne(d, a, p, "Age Requirement")
			So(r.Passed, ShouldBeFalse)
		})

		Convey("Above the policy maximum fails", func() {
			d := doc()
			d.DateOfBirth.Value = "1920-01-01"
			r := runOne(d, applicant(), eligibility.DefaultPolicy(), "Age Requirement")
			So(r.Passed, ShouldBeFalse)
			So(r.Message, ShouldContainSubstring, "exceeds the maximum")
		})

		Convey("An unparseable date of birth fails gracefully", func() {
			d := doc()
			d.DateOfBirth.Value = "15/05/1990"
			r := runOne(d, applicant(), eligibility.DefaultPolicy(), "Age Requirement")
			So(r.Passed, ShouldBeFalse)
			So(r.Message, ShouldContainSubstring, "cannot compute age")
		})
	})
}

func TestNationalityEligibility(t *testing.T) {
	Convey("Given nationality lists", t, func() {
		Convey("A blocked nationality fails regardless of everything else", func() {
			d := doc()
			d.Nationality.Value = "PRK"
			r := runOne(d, applicant(), eligibility.DefaultPolicy(), "Nationality Eligibility")
			So(r.Passed, ShouldBeFalse)
			So(r.Message, ShouldContainSubstring, "blocked")
		})

		Convey("A non-empty allow-list excludes everyone else", func() {
			p := eligibility.DefaultPolicy()
			p.AllowedNationalities = []string{"GBR", "FRA"}
			r := runOne(doc(), applicant(), p, "Nationality Eligibility")
			So(r.Passed, ShouldBeFalse)
		})

		Convey("An empty allow-list means no restriction", func() {
			r := runOne(doc(), applicant(), eligibility.DefaultPolicy(), "Nationality Eligibility")
			So(r.Passed, ShouldBeTrue)
		})
	})
}

func TestDocumentTypeAndValidity(t *testing.T) {
	Convey("Given document type requirements", t, func() {
		p := eligibility.DefaultPolicy()
		p.RequiredDocumentTypes = []string{"P"}
		So(runOne(doc(), applicant(), p, "Document Type").Passed, ShouldBeTrue)

		d := doc()
		d.DocumentType.Value = "I"
		So(runOne(d, applicant(), p, "Document Type").Passed, ShouldBeFalse)
	})

	Convey("Given the 30-day-month validity approximation", t, func() {
		Convey("An expired document fails Validity Period too", func() {
			d := doc()
			d.ExpiryDate.Value = "2000-01-01"
			r := runOne(d, applicant(), eligibility.DefaultPolicy(), "Validity Period")
			So(r.Passed, ShouldBeFalse)
		})

		Convey("Just under the minimum fails, comfortably over passes", func() {
			d := doc()
			d.ExpiryDate.Value = "2025-08-01" // ~2 months from refDate, 6 required
			So(runOne(d, applicant(), eligibility.DefaultPolicy(), "Validity Period").Passed, ShouldBeFalse)

			d.ExpiryDate.Value = "2026-06-01" // ~12 months
			So(runOne(d, applicant(), eligibility.DefaultPolicy(), "Validity Period").Passed, ShouldBeTrue)
		})
	})
}

func TestVisaTypeRequirements(t *testing.T) {
	Convey("Given per-visa-type nationality lists", t, func() {
		p := eligibility.DefaultPolicy()
		p.VisaTypeRequirements["student"] = eligibility.VisaRequirement{
			AllowedNationalities: []string{"GBR"},
		}

		Convey("An unconfigured visa type always passes", func() {
			r := runOne(doc(), applicant(), p, "Visa Type Requirements")
			So(r.Passed, ShouldBeTrue)
		})

		Convey("A configured list must contain the extracted nationality", func() {
			a := applicant()
			a.VisaType = "student"
			r := runOne(doc(), a, p, "Visa Type Requirements")
			So(r.Passed, ShouldBeFalse)

			d := doc()
			d.Nationality.Value = "GBR"
			r = runOne(d, a, p, "Visa Type Requirements")
			So(r.Passed, ShouldBeTrue)
		})
	})
}
