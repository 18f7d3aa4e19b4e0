package extract_test

import (
	"testing"

	"github.com/okian/veridoc/internal/domain/extract"
	"github.com/okian/veridoc/internal/domain/mrz"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	td3Line1 = "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<"
	td3Line2 = "L898902C36UTO7408122F1204159ZE184226B<<<<<10"
)

func TestDocumentFromMRZ(t *testing.T) {
	Convey("Given a checksum-verified MRZ record", t, func() {
		rec := mrz.Parse([]string{td3Line1, td3Line2})
		So(rec.Valid, ShouldBeTrue)

		doc := extract.Document("", &rec)

		Convey("MRZ fields win and score 95", func() {
			So(doc.Surname.Value, ShouldEqual, "ERIKSSON")
			So(doc.Surname.Confidence, ShouldEqual, 95)
			So(doc.GivenNames.Value, ShouldEqual, "ANNA MARIA")
			So(doc.DocumentNumber.Value, ShouldEqual, "L898902C3")
			So(doc.DocumentNumber.Confidence, ShouldEqual, 95)
			So(doc.DateOfBirth.Value, ShouldEqual, "1974-08-12")
			So(doc.ExpiryDate.Value, ShouldEqual, "2012-04-15")
			So(doc.Sex.Value, ShouldEqual, "F")
			So(doc.Nationality.Value, ShouldEqual, "UTO")
			So(doc.IssuingCountry.Value, ShouldEqual, "UTO")
		})

		Convey("The raw lines are echoed", func() {
			So(doc.MRZLine1, ShouldEqual, td3Line1)
			So(doc.MRZLine2, ShouldEqual, td3Line2)
		})

		Convey("The issue date is never MRZ-sourced", func() {
			So(doc.IssueDate.Value, ShouldBeBlank)
			So(doc.IssueDate.Confidence, ShouldEqual, 0)
		})
	})

	Convey("Given an MRZ record with checksum failures", t, func() {
		bad := "L898902C46" + td3Line2[10:]
		rec := mrz.Parse([]string{td3Line1, bad})
		So(rec.Valid, ShouldBeFalse)

		doc := extract.Document("", &rec)

		Convey("Decoded values are kept at the lower 60 score", func() {
			So(doc.Surname.Value, ShouldEqual, "ERIKSSON")
			So(doc.Surname.Confidence, ShouldEqual, 60)
			So(doc.DocumentNumber.Confidence, ShouldEqual, 60)
		})
	})
}

func TestDocumentHeuristics(t *testing.T) {
	Convey("Given OCR text without a usable MRZ", t, func() {
		text := "REPUBLIC OF UTOPIA PASSPORT\n" +
			"Surname: Eriksson\n" +
			"Given names: Anna Maria\n" +
			"Nationality: UTO\n" +
			"Passport No: L8989023\n" +
			"Date of birth: 12/08/1974\n" +
			"Sex: F\n" +
			"Date of issue: 2010-04-15\n" +
			"Date of expiry: 15.04.2020\n"

		doc := extract.Document(text, nil)

		Convey("Keyword and pattern heuristics fill every field", func() {
			So(doc.DocumentType.Value, ShouldEqual, "P")
			So(doc.DocumentType.Confidence, ShouldEqual, 80)
			So(doc.Surname.Value, ShouldEqual, "ERIKSSON")
			So(doc.Surname.Confidence, ShouldEqual, 75)
			So(doc.GivenNames.Value, ShouldEqual, "ANNA MARIA")
			So(doc.DocumentNumber.Value, ShouldEqual, "L8989023")
			So(doc.DocumentNumber.Confidence, ShouldEqual, 75)
			So(doc.Nationality.Value, ShouldEqual, "UTO")
			So(doc.Nationality.Confidence, ShouldEqual, 80)
			So(doc.Sex.Value, ShouldEqual, "F")
			So(doc.Sex.Confidence, ShouldEqual, 85)
		})

		Convey("Separated dates normalize to ISO with the >50 year rule", func() {
			So(doc.DateOfBirth.Value, ShouldEqual, "1974-08-12")
			So(doc.DateOfBirth.Confidence, ShouldEqual, 70)
			So(doc.IssueDate.Value, ShouldEqual, "2010-04-15")
			So(doc.IssueDate.Confidence, ShouldEqual, 70)
			So(doc.ExpiryDate.Value, ShouldEqual, "2020-04-15")
		})
	})

	Convey("Given text with two-digit years", t, func() {
		doc := extract.Document("Date of birth: 3/5/51\nExpiry: 3/5/49", nil)
		So(doc.DateOfBirth.Value, ShouldEqual, "1951-05-03")
		So(doc.ExpiryDate.Value, ShouldEqual, "2049-05-03")
	})

	Convey("Given text with no keyworded date lines", t, func() {
		Convey("The first ISO date anywhere is the fallback", func() {
			doc := extract.Document("some header\n1999-12-31 printed\n", nil)
			So(doc.DateOfBirth.Value, ShouldEqual, "1999-12-31")
		})

		Convey("No date at all stays an explicit unknown", func() {
			doc := extract.Document("nothing here", nil)
			So(doc.DateOfBirth.Value, ShouldBeBlank)
			So(doc.DateOfBirth.Confidence, ShouldEqual, 0)
			So(doc.IssueDate.Value, ShouldBeBlank)
		})
	})

	Convey("Given ambiguous or missing sex evidence", t, func() {
		Convey("A bare letter outranks the spelled word", func() {
			doc := extract.Document("Sex: F\nHOLDER IS MALE", nil)
			So(doc.Sex.Value, ShouldEqual, "F")
		})
		Convey("The spelled word is used otherwise", func() {
			doc := extract.Document("female holder", nil)
			So(doc.Sex.Value, ShouldEqual, "F")
		})
		Convey("Undetermined defaults to M", func() {
			doc := extract.Document("no evidence", nil)
			So(doc.Sex.Value, ShouldEqual, "M")
		})
	})

	Convey("Given type keywords", t, func() {
		cases := map[string]string{
			"NATIONAL IDENTITY CARD": "I",
			"ENTRY VISA":             "V",
			"DRIVING LICENCE":        "D",
			"unmarked document":      "P",
		}
		for text, want := range cases {
			doc := extract.Document(text, nil)
			So(doc.DocumentType.Value, ShouldEqual, want)
		}
	})
}

func TestDocumentIdempotence(t *testing.T) {
	Convey("Extracting the same inputs twice yields identical documents", t, func() {
		text := "PASSPORT\nSurname: Smith\nDate of birth: 1/2/1990"
		rec := mrz.Parse([]string{td3Line1, td3Line2})
		first := extract.Document(text, &rec)
		second := extract.Document(text, &rec)
		So(second, ShouldResemble, first)
	})
}
