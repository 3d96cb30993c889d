// Package metrics provides optional Prometheus instrumentation for tether
// clients. A nil *Recorder is valid and records nothing, so apps that never
// enable metrics pay only a nil check per request.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Failure kinds recorded by ObserveFailure.
const (
	FailureValidation     = "validation"
	FailureAuthentication = "authentication"
	FailureTransport      = "transport"
)

// Recorder holds the Prometheus metrics for one client app.
type Recorder struct {
	namespace string
	buckets   []float64
	registry  prometheus.Registerer

	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	failures    *prometheus.CounterVec
	authRefresh prometheus.Counter
}

// Option applies a configuration option to the Recorder.
type Option func(*Recorder)

// WithNamespace sets the namespace for all metrics. Default: tether.
func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		if namespace != "" {
			r.namespace = namespace
		}
	}
}

// WithRegistry registers metrics on the given registerer instead of the
// default one. Tests use a fresh registry to avoid duplicate registration.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(r *Recorder) {
		if reg != nil {
			r.registry = reg
		}
	}
}

// WithHistogramBuckets sets custom buckets for the request duration
// histogram.
func WithHistogramBuckets(buckets []float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.buckets = buckets
		}
	}
}

// NewRecorder creates a Recorder and registers its metrics.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: "tether",
		buckets:   prometheus.DefBuckets,
		registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(r)
	}

	auto := promauto.With(r.registry)
	r.requests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "client",
		Name:      "requests_total",
		Help:      "Total HTTP requests dispatched, by route template, method, and status",
	}, []string{"route", "method", "status"})

	r.duration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Subsystem: "client",
		Name:      "request_duration_seconds",
		Help:      "Histogram of request round-trip time",
		Buckets:   r.buckets,
	}, []string{"route", "method"})

	r.failures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "client",
		Name:      "request_failures_total",
		Help:      "Requests that failed before or during dispatch, by failure kind",
	}, []string{"route", "method", "kind"})

	r.authRefresh = auto.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "client",
		Name:      "authenticator_runs_total",
		Help:      "Successful authenticator invocations",
	})

	return r
}

// ObserveRequest records one completed HTTP exchange. A zero status means the
// exchange never completed.
func (r *Recorder) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(route, method, statusLabel(status)).Inc()
	r.duration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ObserveFailure records a request that failed with the given kind.
func (r *Recorder) ObserveFailure(route, method, kind string) {
	if r == nil {
		return
	}
	r.failures.WithLabelValues(route, method, kind).Inc()
}

// ObserveAuth records one successful authenticator run.
func (r *Recorder) ObserveAuth() {
	if r == nil {
		return
	}
	r.authRefresh.Inc()
}

func statusLabel(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
