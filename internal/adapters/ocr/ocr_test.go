package ocr

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// stubRunner records the invocation and returns canned output.
type stubRunner struct {
	name   string
	args   []string
	stdout []byte
	stderr []byte
	err    error
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.name = name
	s.args = args
	return s.stdout, s.stderr, s.err
}

func TestEngineRecognize(t *testing.T) {
	Convey("Given an OCR engine with a stub runner", t, func() {
		runner := &stubRunner{stdout: []byte("PASSPORT\nSurname: ERIKSSON\n")}
		engine := NewEngine(
			WithRunner(runner),
			WithTempDir(t.TempDir()),
		)

		Convey("When recognizing an image", func() {
			text, err := engine.Recognize(context.Background(), []byte{0xFF, 0xD8, 0xFF})

			Convey("Then it should return the engine output", func() {
				So(err, ShouldBeNil)
				So(text, ShouldContainSubstring, "ERIKSSON")
			})

			Convey("And it should invoke the default binary with stdout output", func() {
				So(runner.name, ShouldEqual, "tesseract")
				So(runner.args, ShouldContain, "stdout")
				So(runner.args, ShouldContain, "-l")
				So(runner.args, ShouldContain, "eng")
			})

			Convey("And it should clean up the scratch file", func() {
				entries, readErr := os.ReadDir(engine.tempDir)
				So(readErr, ShouldBeNil)
				So(entries, ShouldBeEmpty)
			})
		})

		Convey("When recognizing an empty image", func() {
			_, err := engine.Recognize(context.Background(), nil)

			Convey("Then it should return ErrEmptyImage", func() {
				So(errors.Is(err, ErrEmptyImage), ShouldBeTrue)
			})
		})
	})
}

func TestEngineOptions(t *testing.T) {
	Convey("Given a fully configured engine", t, func() {
		runner := &stubRunner{stdout: []byte("ok")}
		engine := NewEngine(
			WithRunner(runner),
			WithBinary("/opt/ocr/tesseract"),
			WithLanguage("eng+deu"),
			WithPageSegmentationMode(6),
			WithTessdataDir("/opt/ocr/tessdata"),
			WithTempDir(t.TempDir()),
		)

		Convey("When recognizing an image", func() {
			_, err := engine.Recognize(context.Background(), []byte{0x01})

			Convey("Then the configured flags should be passed through", func() {
				So(err, ShouldBeNil)
				So(runner.name, ShouldEqual, "/opt/ocr/tesseract")
				So(strings.Join(runner.args, " "), ShouldContainSubstring, "-l eng+deu")
				So(strings.Join(runner.args, " "), ShouldContainSubstring, "--psm 6")
				So(strings.Join(runner.args, " "), ShouldContainSubstring, "--tessdata-dir /opt/ocr/tessdata")
			})
		})

		Convey("When options carry empty or zero values", func() {
			fallback := NewEngine(
				WithRunner(nil),
				WithBinary(""),
				WithLanguage(""),
				WithPageSegmentationMode(0),
				WithTessdataDir(""),
				WithTempDir(""),
			)

			Convey("Then defaults should be kept", func() {
				So(fallback.binary, ShouldEqual, "tesseract")
				So(fallback.language, ShouldEqual, "eng")
				So(fallback.psm, ShouldEqual, 0)
				So(fallback.runner, ShouldNotBeNil)
				So(fallback.tempDir, ShouldNotBeEmpty)
			})
		})
	})
}

func TestEngineFailures(t *testing.T) {
	Convey("Given an engine whose process fails", t, func() {
		runner := &stubRunner{
			stderr: []byte("Error in pixReadStream: unknown format"),
			err:    errors.New("exit status 1"),
		}
		engine := NewEngine(WithRunner(runner), WithTempDir(t.TempDir()))

		Convey("When recognizing an image", func() {
			_, err := engine.Recognize(context.Background(), []byte{0x01, 0x02})

			Convey("Then the error should carry the stderr excerpt", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "exit status 1")
				So(err.Error(), ShouldContainSubstring, "pixReadStream")
			})
		})
	})

	Convey("Given an oversized stderr stream", t, func() {
		Convey("When truncating", func() {
			long := strings.Repeat("x", maxStderrExcerpt+100)
			short := "short"

			Convey("Then only oversized input should be cut", func() {
				So(truncate(long, maxStderrExcerpt), ShouldEndWith, "...(truncated)")
				So(len(truncate(long, maxStderrExcerpt)), ShouldBeLessThan, len(long))
				So(truncate(short, maxStderrExcerpt), ShouldEqual, short)
			})
		})
	})
}
