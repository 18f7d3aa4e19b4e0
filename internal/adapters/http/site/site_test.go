package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSiteHandler(t *testing.T) {
	Convey("Given a site handler", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()

		Convey("When registering the site handler", func() {
			Register(ctx, mux)

			Convey("Then it should serve the front page at /", func() {
				req := httptest.NewRequest("GET", "/", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				So(w.Body.String(), ShouldContainSubstring, "VERIDOC")
			})

			Convey("And /index.html should resolve", func() {
				req := httptest.NewRequest("GET", "/index.html", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				// FileServer redirects /index.html to ./
				So(w.Code, ShouldBeIn, []int{http.StatusOK, http.StatusMovedPermanently})
			})

			Convey("And unknown assets should return 404", func() {
				req := httptest.NewRequest("GET", "/missing-asset.js", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestSiteErrors(t *testing.T) {
	Convey("Given site error constants", t, func() {
		Convey("Then ErrGenerate should be defined", func() {
			So(ErrGenerate, ShouldNotBeNil)
			So(ErrGenerate.Error(), ShouldEqual, "site generation failed")
		})

		Convey("And ErrServe should be defined", func() {
			So(ErrServe, ShouldNotBeNil)
			So(ErrServe.Error(), ShouldEqual, "site serve failed")
		})

		Convey("And errors should be different", func() {
			So(ErrGenerate, ShouldNotEqual, ErrServe)
		})
	})
}

func TestSiteHandlerWithNilMux(t *testing.T) {
	Convey("Given a nil mux", t, func() {
		ctx := context.Background()

		Convey("When registering the site handler", func() {
			Convey("Then it should panic", func() {
				So(func() {
					Register(ctx, nil)
				}, ShouldPanic)
			})
		})
	})
}

func TestSiteHandlerWithNilContext(t *testing.T) {
	Convey("Given a nil context", t, func() {
		mux := http.NewServeMux()

		Convey("When registering the site handler", func() {
			Convey("Then it should not panic", func() {
				So(func() {
					Register(context.TODO(), mux)
				}, ShouldNotPanic)
			})
		})
	})
}
