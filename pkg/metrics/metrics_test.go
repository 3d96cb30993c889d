package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRecorder(t *testing.T) {
	Convey("Given a recorder on a fresh registry", t, func() {
		reg := prometheus.NewRegistry()
		rec := NewRecorder(WithRegistry(reg), WithNamespace("testapp"))

		Convey("When a request is observed", func() {
			rec.ObserveRequest("/v1/dogs/{id}", "GET", 200, 120*time.Millisecond)

			Convey("Then the counter carries the status class label", func() {
				n := testutil.ToFloat64(rec.requests.WithLabelValues("/v1/dogs/{id}", "GET", "2xx"))
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When a transport error with no status is observed", func() {
			rec.ObserveRequest("/v1/dogs", "POST", 0, time.Millisecond)

			Convey("Then it is labeled as error", func() {
				n := testutil.ToFloat64(rec.requests.WithLabelValues("/v1/dogs", "POST", "error"))
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When failures are observed", func() {
			rec.ObserveFailure("/v1/dogs", "PATCH", FailureValidation)
			rec.ObserveFailure("/v1/dogs", "GET", FailureTransport)

			Convey("Then they are counted per kind", func() {
				So(testutil.ToFloat64(rec.failures.WithLabelValues("/v1/dogs", "PATCH", FailureValidation)), ShouldEqual, 1)
				So(testutil.ToFloat64(rec.failures.WithLabelValues("/v1/dogs", "GET", FailureTransport)), ShouldEqual, 1)
			})
		})

		Convey("When the authenticator runs", func() {
			rec.ObserveAuth()
			rec.ObserveAuth()

			So(testutil.ToFloat64(rec.authRefresh), ShouldEqual, 2)
		})
	})

	Convey("Given a nil recorder", t, func() {
		var rec *Recorder

		Convey("Then all observations are no-ops", func() {
			So(func() {
				rec.ObserveRequest("/x", "GET", 200, time.Second)
				rec.ObserveFailure("/x", "GET", FailureTransport)
				rec.ObserveAuth()
			}, ShouldNotPanic)
		})
	})
}

func TestStatusLabel(t *testing.T) {
	Convey("Status codes map to class labels", t, func() {
		So(statusLabel(200), ShouldEqual, "2xx")
		So(statusLabel(204), ShouldEqual, "2xx")
		So(statusLabel(404), ShouldEqual, "4xx")
		So(statusLabel(503), ShouldEqual, "5xx")
		So(statusLabel(0), ShouldEqual, "error")
	})
}
