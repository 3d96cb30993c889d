package tether_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/okian/tether"
	"github.com/okian/tether/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFromConfig(t *testing.T) {
	Convey("Given a loaded configuration", t, func() {
		rec := &recorded{}
		srv := newEchoServer(rec)
		defer srv.Close()

		cfg := config.New(context.Background())
		cfg.Domain = srv.URL
		cfg.UserAgent = "configured/1.0"
		cfg.TimeoutMS = 5_000
		cfg.Headers = map[string]string{"X-Team": "platform"}
		cfg.APIKey = "sesame"

		Convey("When building an app from it", func() {
			app := tether.New("tether/test", tether.FromConfig(cfg))
			r := app.MustRoute("/v1/things", []string{"GET"})

			_, err := r.Request().Get(ctx())

			Convey("Then domain, headers, and credentials apply to every call", func() {
				So(err, ShouldBeNil)
				So(app.Domain(), ShouldEqual, srv.URL)
				So(rec.header.Get("User-Agent"), ShouldEqual, "configured/1.0")
				So(rec.header.Get("X-Team"), ShouldEqual, "platform")
				So(rec.header.Get("X-Api-Key"), ShouldEqual, "sesame")
			})
		})

		Convey("When the config carries an invalid domain", func() {
			cfg.Domain = "not-a-url"
			app := tether.New("tether/test", tether.FromConfig(cfg))
			r := app.MustRoute("/v1/things", []string{"GET"})

			_, err := r.Request().Get(ctx())

			Convey("Then the bad value is kept and the first dispatch fails", func() {
				So(app.Domain(), ShouldEqual, "not-a-url")
				So(errors.Is(err, tether.ErrTransport), ShouldBeTrue)
				So(rec.hits, ShouldEqual, 0)
			})
		})

		Convey("When the config enables the testing escape hatch", func() {
			cfg.Testing = true
			app := tether.New("tether/test", tether.FromConfig(cfg))
			r := app.MustRoute("/v1/things/{id}", []string{"GET"})

			_, err := r.Request().Do(ctx(), http.MethodPatch)

			Convey("Then validation is disabled", func() {
				So(err, ShouldBeNil)
				So(rec.method, ShouldEqual, http.MethodPatch)
			})
		})

		Convey("When an authenticator is installed before FromConfig", func() {
			custom := tether.APIKey("X-Custom", "mine")
			app := tether.New("tether/test",
				tether.WithAuthenticator(custom), tether.FromConfig(cfg))
			r := app.MustRoute("/v1/things", []string{"GET"})

			_, err := r.Request().Get(ctx())

			Convey("Then the static credentials do not replace it", func() {
				So(err, ShouldBeNil)
				So(rec.header.Get("X-Custom"), ShouldEqual, "mine")
				So(rec.header.Get("X-Api-Key"), ShouldBeEmpty)
			})
		})

		Convey("Timeout carries over from the config", func() {
			So(cfg.Timeout(), ShouldEqual, 5*time.Second)
		})
	})
}
