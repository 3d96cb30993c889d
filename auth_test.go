package tether_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/tether"
	. "github.com/smartystreets/goconvey/convey"
)

func ctx() context.Context { return context.Background() }

func TestAuthenticator(t *testing.T) {
	Convey("Given an app with an authenticator", t, func() {
		rec := &recorded{}
		srv := newEchoServer(rec)
		defer srv.Close()

		authRuns := 0
		app := tether.New("tether/test", tether.WithDomain(srv.URL))
		app.SetAuthenticator(tether.AuthenticatorFunc(func(_ context.Context, _ *tether.Request) (http.Header, error) {
			authRuns++
			h := make(http.Header)
			h.Set("X-Auth-Token", "sesame")
			return h, nil
		}))
		dogs := app.MustRoute("/v1/dogs", []string{"GET"})

		Convey("When dispatching a normal route", func() {
			_, err := dogs.Request().Get(ctx())

			Convey("Then the authenticator ran and its headers were merged", func() {
				So(err, ShouldBeNil)
				So(authRuns, ShouldEqual, 1)
				So(rec.header.Get("X-Auth-Token"), ShouldEqual, "sesame")
			})
		})

		Convey("When the authenticator headers clash with per-call headers", func() {
			_, err := dogs.Request().Header("X-Auth-Token", "stale").Get(ctx())

			Convey("Then the authenticator wins", func() {
				So(err, ShouldBeNil)
				So(rec.header.Get("X-Auth-Token"), ShouldEqual, "sesame")
			})
		})

		Convey("When dispatching a NoAuth route", func() {
			login := app.MustRoute("/v1/login", []string{"POST"}, tether.NoAuth())
			_, err := login.Request().JSON(map[string]any{"user": "ray"}).Post(ctx())

			Convey("Then the authenticator is skipped", func() {
				So(err, ShouldBeNil)
				So(authRuns, ShouldEqual, 0)
				So(rec.header.Get("X-Auth-Token"), ShouldBeEmpty)
			})
		})
	})

	Convey("Given an authenticator that fails", t, func() {
		rec := &recorded{}
		srv := newEchoServer(rec)
		defer srv.Close()

		app := tether.New("tether/test", tether.WithDomain(srv.URL),
			tether.WithAuthenticator(tether.AuthenticatorFunc(func(context.Context, *tether.Request) (http.Header, error) {
				return nil, errors.New("token expired")
			})))
		dogs := app.MustRoute("/v1/dogs", []string{"GET"})

		Convey("When dispatching", func() {
			_, err := dogs.Request().Get(ctx())

			Convey("Then an AuthenticationError propagates and the request is not sent", func() {
				So(errors.Is(err, tether.ErrAuthentication), ShouldBeTrue)
				var ae *tether.AuthenticationError
				So(errors.As(err, &ae), ShouldBeTrue)
				So(ae.Err.Error(), ShouldEqual, "token expired")
				So(rec.hits, ShouldEqual, 0)
			})
		})
	})

	Convey("Given an authenticator that logs in through a route of the same app", t, func() {
		var loginHits int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if r.URL.Path == "/v1/login" {
				loginHits++
				_, _ = w.Write([]byte(`{"token":"fresh"}`))
				return
			}
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		defer srv.Close()

		app := tether.New("tether/test", tether.WithDomain(srv.URL))
		login := app.MustRoute("/v1/login", []string{"POST"})
		dogs := app.MustRoute("/v1/dogs", []string{"GET"})

		authRuns := 0
		app.SetAuthenticator(tether.AuthenticatorFunc(func(c context.Context, req *tether.Request) (http.Header, error) {
			authRuns++
			if req.IsFor(login) {
				return nil, nil
			}
			out, err := login.Request().JSON(map[string]any{"user": "ray"}).Post(c)
			if err != nil {
				return nil, err
			}
			token := out.(map[string]any)["token"].(string)
			h := make(http.Header)
			h.Set("X-Auth-Token", token)
			return h, nil
		}))

		Convey("When dispatching a normal route", func() {
			out, err := dogs.Request().Get(ctx())

			Convey("Then the login call does not recurse into the authenticator", func() {
				So(err, ShouldBeNil)
				So(out.(map[string]any)["ok"], ShouldEqual, true)
				So(authRuns, ShouldEqual, 1)
				So(loginHits, ShouldEqual, 1)
			})
		})
	})
}

func TestBuiltinAuthenticators(t *testing.T) {
	Convey("Given an app using APIKey authentication", t, func() {
		rec := &recorded{}
		srv := newEchoServer(rec)
		defer srv.Close()

		app := tether.New("tether/test", tether.WithDomain(srv.URL),
			tether.WithAuthenticator(tether.APIKey("X-Api-Key", "secret")))
		r := app.MustRoute("/v1/things", []string{"GET"})

		Convey("Then the key header is attached", func() {
			_, err := r.Request().Get(ctx())
			So(err, ShouldBeNil)
			So(rec.header.Get("X-Api-Key"), ShouldEqual, "secret")
		})
	})

	Convey("Given an app using BasicAuth", t, func() {
		rec := &recorded{}
		srv := newEchoServer(rec)
		defer srv.Close()

		app := tether.New("tether/test", tether.WithDomain(srv.URL),
			tether.WithAuthenticator(tether.BasicAuth("ray", "ofsunshine")))
		r := app.MustRoute("/v1/things", []string{"GET"})

		Convey("Then the Authorization header carries the credentials", func() {
			_, err := r.Request().Get(ctx())
			So(err, ShouldBeNil)
			// "ray:ofsunshine" base64-encoded
			So(rec.header.Get("Authorization"), ShouldEqual, "Basic cmF5Om9mc3Vuc2hpbmU=")
		})
	})
}
