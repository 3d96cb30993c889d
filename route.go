package tether

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/okian/tether/internal/urltemplate"
)

// Handler transforms a raw HTTP response into the route's result value.
// Handlers are pure with respect to the request: they receive the response,
// return the transformed value, and mutate nothing else. The response body is
// closed by the dispatcher after the handler returns.
type Handler func(resp *http.Response) (any, error)

// DefaultHandler decodes the response body as JSON into a generic value.
// Empty bodies (e.g. 204 No Content) yield nil.
func DefaultHandler(resp *http.Response) (any, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response body: %w", err)
	}
	return out, nil
}

// Route is a named, reusable definition of a URL template, its allowed
// methods, and a response handler. Immutable after registration and shared
// by every request referencing it.
type Route struct {
	app              *App
	path             string
	template         *urltemplate.Template
	methods          map[string]struct{}
	params           []Param
	urlParams        []Param
	headers          http.Header
	handler          Handler
	noAuth           bool
	allowErrorStatus bool
}

// Handle binds the response handler and returns the route, mirroring a
// decorator: the function registered here receives every raw response for
// this route. Routes without a handler fall back to DefaultHandler.
func (r *Route) Handle(h Handler) *Route {
	r.handler = h
	return r
}

// Path returns the URL template as registered.
func (r *Route) Path() string { return r.path }

// Methods returns the allowed methods, sorted.
func (r *Route) Methods() []string {
	out := make([]string, 0, len(r.methods))
	for m := range r.methods {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Allows reports whether the method is in the route's allowed set.
func (r *Route) Allows(method string) bool {
	_, ok := r.methods[strings.ToUpper(method)]
	return ok
}

// URL returns the unexpanded absolute URL for the route.
func (r *Route) URL() string {
	return joinURL(r.app.domain, r.path)
}

// Request starts an ephemeral request against the route. Chain argument
// setters and finish with one of the method calls:
//
//	dogs.Request().URLArg("id", 123).Get(ctx)
func (r *Route) Request() *Request {
	return newRequest(r)
}

func (r *Route) String() string {
	return fmt.Sprintf("<Route %s [%s]>", r.path, strings.Join(r.Methods(), " "))
}

// RouteOption applies a configuration option at registration time.
type RouteOption func(*Route)

// WithParams declares the query parameters validated on every call.
func WithParams(params ...Param) RouteOption {
	return func(r *Route) {
		r.params = append(r.params, params...)
	}
}

// WithURLParams declares URL-arg params, typically to supply defaults for
// template placeholders.
func WithURLParams(params ...Param) RouteOption {
	return func(r *Route) {
		r.urlParams = append(r.urlParams, params...)
	}
}

// WithRouteHeaders sets headers sent with every call to this route. They
// override app headers and are overridden by per-call headers.
func WithRouteHeaders(headers map[string]string) RouteOption {
	return func(r *Route) {
		for k, v := range headers {
			r.headers.Set(k, v)
		}
	}
}

// WithHandler binds the response handler at registration time.
func WithHandler(h Handler) RouteOption {
	return func(r *Route) {
		r.handler = h
	}
}

// NoAuth exempts the route from the authenticator hook. Meant for the login
// route an authenticator itself calls.
func NoAuth() RouteOption {
	return func(r *Route) {
		r.noAuth = true
	}
}

// AllowErrorStatus passes 4xx/5xx responses to the handler instead of
// failing with a TransportError.
func AllowErrorStatus() RouteOption {
	return func(r *Route) {
		r.allowErrorStatus = true
	}
}

var supportedMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodOptions: {},
}

func methodSet(methods []string) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		upper := strings.ToUpper(strings.TrimSpace(m))
		if _, ok := supportedMethods[upper]; !ok {
			return nil, fmt.Errorf("unsupported method %q", m)
		}
		set[upper] = struct{}{}
	}
	return set, nil
}
